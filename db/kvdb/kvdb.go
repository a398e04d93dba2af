package kvdb

const PropertiesBucket = "properties"

var buckets = []string{PropertiesBucket}

type DB interface {
	Set(bucket string, key string, value string) error
	SetBatch(bucket string, values map[string]string) error
	Get(bucket string, key string) (string, error)
	Close() error
}
