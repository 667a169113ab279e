package redis

// Redis key naming conventions for drover data.
// All keys are prefixed with "drover:" to avoid collisions.

const keyPrefix = "drover:"

// instanceKey returns the key for an instance entity: drover:instance:{id}
func instanceKey(id string) string { return keyPrefix + "instance:" + id }

// instanceIDsKey is the Set tracking all instance IDs for enumeration.
const instanceIDsKey = keyPrefix + "instance_ids"
