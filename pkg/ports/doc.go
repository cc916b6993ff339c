/*
Package ports defines the driven ports (interfaces) of the scholarship assistant.

These interfaces decouple the collection flow from external implementations,
allowing the engine to work with various text generation backends, catalogs,
renderers and storage backends.

# Key Interfaces

  - SlotExtractor: Turns an utterance into a criterion update or a confirmation.
  - Renderer: Turns dialog acts into user facing text.
  - ScholarshipRepository: Executes the confirmed search and detail lookups.
  - SessionStore: Persists and loads sessions.
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - IntentRouter: Receives utterances that do not belong to the criteria flow.
*/
package ports
