package archive

type arrayRecord struct {
	Position    int    `db:"position"`
	Name        string `db:"name"`
	DType       string `db:"dtype"`
	Shape       string `db:"shape"`
	Compression string `db:"compression"`
	ByteSize    int    `db:"byte_size"`
	Data        []byte `db:"data"`
}

type arrayHeader struct {
	Position int    `db:"position"`
	Name     string `db:"name"`
}

type metaRecord struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

type Compression string

const (
	CompressionNone Compression = "none"
	CompressionXz   Compression = "xz"
)
