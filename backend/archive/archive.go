package archive

import (
	"fmt"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/upper/db/v4"
	"os"
	"time"
	"vincit.fi/image-dataset/api/apitype"
	"vincit.fi/image-dataset/backend/internal/database"
	"vincit.fi/image-dataset/common/logger"
)

const (
	arrayTable = "archive_array"
	metaTable  = "archive_meta"
)

type Options struct {
	Compress bool
}

// Archive is an ordered collection of named arrays and string metadata stored in a
// single SQLite file.
type Archive struct {
	path     string
	database *database.Database
	options  Options
}

// Create creates a new archive at path. An existing file is replaced.
func Create(path string, options Options) (*Archive, error) {
	store := database.NewDatabase()
	if err := store.Create(path); err != nil {
		return nil, err
	}
	if _, err := store.Migrate(); err != nil {
		store.Close()
		return nil, errors.Wrapf(err, "could not initialize archive '%s'", path)
	}
	return &Archive{path: path, database: store, options: options}, nil
}

// Open opens an existing archive for reading and appending.
func Open(path string) (*Archive, error) {
	store := database.NewDatabase()
	if err := store.Open(path); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, &apitype.ArchiveFormatError{Archive: path, Msg: "file not found", Err: err}
		}
		return nil, &apitype.ArchiveFormatError{Archive: path, Err: err}
	}
	if !store.DoesTablesExists() {
		store.Close()
		return nil, &apitype.ArchiveFormatError{Archive: path, Msg: "not an archive"}
	}
	if _, err := store.Migrate(); err != nil {
		store.Close()
		return nil, &apitype.ArchiveFormatError{Archive: path, Err: err}
	}
	return &Archive{path: path, database: store}, nil
}

func (s *Archive) Path() string {
	return s.path
}

func (s *Archive) arrays() db.Collection {
	return s.database.Session().Collection(arrayTable)
}

func (s *Archive) Put(array *Array) error {
	return s.PutAll(array)
}

// PutAll appends arrays in the given order in a single transaction.
func (s *Archive) PutAll(arrays ...*Array) error {
	records := make([]*arrayRecord, len(arrays))
	for i, array := range arrays {
		record, err := s.toRecord(array)
		if err != nil {
			return err
		}
		records[i] = record
	}

	return s.database.Session().Tx(func(session db.Session) error {
		collection := session.Collection(arrayTable)
		count, err := collection.Find().Count()
		if err != nil {
			return err
		}
		for i, record := range records {
			record.Position = int(count) + i
			if _, err := collection.Insert(record); err != nil {
				return errors.Wrapf(err, "could not store array '%s' to '%s'", record.Name, s.path)
			}
			logger.Debug.Printf("Stored array '%s' (%s, %s) at position %d",
				record.Name, record.DType, record.Shape, record.Position)
		}
		return nil
	})
}

func (s *Archive) toRecord(array *Array) (*arrayRecord, error) {
	startTime := time.Now()
	shape, err := json.Marshal(array.shape)
	if err != nil {
		return nil, errors.Wrapf(err, "could not encode shape of '%s'", array.name)
	}

	data := array.data
	compression := CompressionNone
	if s.options.Compress {
		if data, err = compress(array.data); err != nil {
			return nil, errors.WithMessagef(err, "array '%s'", array.name)
		}
		compression = CompressionXz
	}
	logger.Trace.Printf("'%s': Encoded %d bytes into %d bytes in %s",
		array.name, len(array.data), len(data), time.Since(startTime))

	return &arrayRecord{
		Name:        array.name,
		DType:       string(array.dtype),
		Shape:       string(shape),
		Compression: string(compression),
		ByteSize:    len(array.data),
		Data:        data,
	}, nil
}

// Names returns array names in insertion order.
func (s *Archive) Names() ([]string, error) {
	var headers []arrayHeader
	if err := s.database.Session().SQL().
		Select("position", "name").
		From(arrayTable).
		OrderBy("position").
		All(&headers); err != nil {
		return nil, &apitype.ArchiveFormatError{Archive: s.path, Err: err}
	}
	names := make([]string, len(headers))
	for i, header := range headers {
		names[i] = header.Name
	}
	return names, nil
}

func (s *Archive) Len() (int, error) {
	count, err := s.arrays().Find().Count()
	if err != nil {
		return 0, &apitype.ArchiveFormatError{Archive: s.path, Err: err}
	}
	return int(count), nil
}

func (s *Archive) Get(name string) (*Array, error) {
	return s.find(name, db.Cond{"name": name})
}

// At returns the array stored at position, counting from zero.
func (s *Archive) At(position int) (*Array, error) {
	return s.find(fmt.Sprintf("#%d", position), db.Cond{"position": position})
}

func (s *Archive) find(key string, cond db.Cond) (*Array, error) {
	startTime := time.Now()
	var record arrayRecord
	if err := s.arrays().Find(cond).One(&record); err != nil {
		if errors.Is(err, db.ErrNoMoreRows) {
			return nil, &apitype.ArchiveFormatError{Archive: s.path, Key: key, Msg: "no such array"}
		}
		return nil, &apitype.ArchiveFormatError{Archive: s.path, Key: key, Err: err}
	}

	array, err := s.fromRecord(&record)
	if err != nil {
		return nil, err
	}
	logger.Trace.Printf("'%s': Read %s in %s", s.path, array, time.Since(startTime))
	return array, nil
}

func (s *Archive) fromRecord(record *arrayRecord) (*Array, error) {
	formatError := func(message string, err error) error {
		return &apitype.ArchiveFormatError{Archive: s.path, Key: record.Name, Msg: message, Err: err}
	}

	dtype, err := parseDType(record.DType)
	if err != nil {
		return nil, formatError("", err)
	}
	var shape []int
	if err := json.Unmarshal([]byte(record.Shape), &shape); err != nil {
		return nil, formatError("invalid shape", err)
	}

	data := record.Data
	switch Compression(record.Compression) {
	case CompressionNone:
	case CompressionXz:
		if data, err = decompress(record.Data, record.ByteSize); err != nil {
			return nil, formatError("", err)
		}
	default:
		return nil, formatError(fmt.Sprintf("unknown compression '%s'", record.Compression), nil)
	}
	if data == nil {
		data = []byte{}
	}

	array := &Array{
		name:   record.Name,
		dtype:  dtype,
		shape:  shape,
		data:   data,
		source: s.path,
	}
	if err := array.validate(); err != nil {
		return nil, err
	}
	return array, nil
}

func (s *Archive) SetMeta(key string, value string) error {
	_, err := s.database.Session().SQL().Exec(
		`INSERT INTO archive_meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return errors.Wrapf(err, "could not store meta data '%s' to '%s'", key, s.path)
	}
	return nil
}

// Meta returns the value stored for key and whether it was found.
func (s *Archive) Meta(key string) (string, bool, error) {
	var meta metaRecord
	if err := s.database.Session().Collection(metaTable).Find(db.Cond{"key": key}).One(&meta); err != nil {
		if errors.Is(err, db.ErrNoMoreRows) {
			return "", false, nil
		}
		return "", false, &apitype.ArchiveFormatError{Archive: s.path, Key: key, Err: err}
	}
	return meta.Value, true, nil
}

func (s *Archive) Close() {
	s.database.Close()
}
