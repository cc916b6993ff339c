/*
Package domain contains the core domain models of the scholarship search assistant.

It defines the slot-filling entities that drive a criteria search conversation:
the four searchable criteria, the record that accumulates them, the lifecycle
machine that gates each sub-behavior, and the dialog acts a turn produces.
This package is kept pure and free of external dependencies like I/O,
persistence or text generation, following Hexagonal Architecture principles.

# Key Entities

  - Field: One of the searchable criteria (area, education level, location, organization).
  - Criteria: The per-session record of selected values.
  - CriteriaMachine: The five-state lifecycle of a criteria search.
  - ExtractionResult: The closed set of interpretations an extractor may return.
  - DialogAct: An atomic unit of conversational meaning handed to a renderer.
  - Session: The persisted state of one conversation.
*/
package domain
