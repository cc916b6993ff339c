/*
Package session implements session management and persistence orchestration.

It serializes turns of one conversation, both inside a process (reference
counted mutexes) and across replicas (an optional DistributedLocker), while
distinct sessions proceed fully in parallel.
*/
package session
