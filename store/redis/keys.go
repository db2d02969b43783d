package redis

// Redis key naming conventions for pipeline data.
// All keys are prefixed with "pipeline:" to avoid collisions.

const keyPrefix = "pipeline:"

// jobKey returns the key for a journaled job: pipeline:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }

// jobIDsKey is the Set tracking all journaled job IDs for enumeration.
const jobIDsKey = keyPrefix + "job_ids"

// dlqKey returns the key for a DLQ entry: pipeline:dlq:{id}
func dlqKey(id string) string { return keyPrefix + "dlq:" + id }

// dlqIDsKey is the Set tracking all DLQ entry IDs for enumeration.
const dlqIDsKey = keyPrefix + "dlq_ids"
