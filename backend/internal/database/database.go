package database

import (
	"github.com/pkg/errors"
	"github.com/upper/db/v4"
	"github.com/upper/db/v4/adapter/sqlite"
	"os"
	"path/filepath"
	"vincit.fi/image-dataset/common/logger"
)

type TableExist bool

const (
	TableNotExist TableExist = false
	TableExists   TableExist = true
)

type Database struct {
	session db.Session
	dbPath  string
}

func NewDatabase() *Database {
	return &Database{}
}

// Create opens a new database file, replacing any previous file at path.
func (s *Database) Create(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "could not create directory for '%s'", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "could not remove previous database '%s'", path)
	}
	return s.open(path)
}

// Open opens an existing database file. It fails if the file does not exist.
func (s *Database) Open(path string) error {
	if info, err := os.Stat(path); err != nil {
		return err
	} else if info.IsDir() {
		return errors.Errorf("'%s' is a directory", path)
	}
	return s.open(path)
}

func (s *Database) open(path string) error {
	s.dbPath = path
	logger.Debug.Printf("Initializing database %s", s.dbPath)
	var settings = sqlite.ConnectionURL{
		Database: s.dbPath,
	}

	session, err := sqlite.Open(settings)
	if err != nil {
		return errors.Wrapf(err, "could not open database '%s'", path)
	}
	s.session = session

	var version map[string]interface{}
	if err := s.session.SQL().Select(db.Func("sqlite_version")).One(&version); err != nil {
		s.Close()
		return errors.Wrapf(err, "'%s' is not a database", path)
	}
	logger.Debug.Printf("Database initialized. Using SQLite version %s", version["sqlite_version()"])
	return nil
}

func (s *Database) Path() string {
	return s.dbPath
}

func (s *Database) Migrate() (TableExist, error) {
	logger.Debug.Printf("Running migrations")
	tablesExists := s.DoesTablesExists()

	if !tablesExists {
		logger.Debug.Print("Initial tables don't exist. Creating...")
		err := s.session.Tx(func(session db.Session) error {
			_, err := session.SQL().Exec(`
				CREATE TABLE migration (
					id TEXT PRIMARY KEY
				)
			`)
			return err
		})
		if err != nil {
			return TableNotExist, errors.Wrap(err, "error while creating migration table")
		}
	}

	if err := s.migrate(); err != nil {
		return TableNotExist, errors.Wrap(err, "error while running migrations")
	}
	logger.Debug.Print("All migrations done")

	if tablesExists {
		return TableExists, nil
	} else {
		return TableNotExist, nil
	}
}

func (s *Database) DoesTablesExists() bool {
	rows, err := s.session.SQL().Query(`
		SELECT name FROM sqlite_master WHERE type='table' AND name= 'migration';
	`)

	if err != nil {
		return false
	}

	defer rows.Close()
	return rows.Next()
}

func (s *Database) Session() db.Session {
	return s.session
}

func (s *Database) migrate() error {
	return s.session.Tx(func(session db.Session) error {
		if migrationStatusesById, err := s.findAlreadyRunMigrations(session); err != nil {
			return err
		} else {
			for _, migration := range migrations {
				if err := s.runMigration(session, migration, migrationStatusesById); err != nil {
					logger.Error.Print("Failed to run migration ", err)
					return err
				}
			}

			logger.Trace.Printf("Commit migrations")
			return nil
		}
	})
}

func (s *Database) runMigration(session db.Session, migration migration, migrationStatusesById map[MigrationId]bool) error {
	migrationId := migration.id

	if _, found := migrationStatusesById[migrationId]; found {
		logger.Trace.Printf("Migration %d is already done", migrationId)
		return nil
	}

	if statement, err := session.SQL().Prepare(`INSERT INTO migration (id) VALUES (?)`); err != nil {
		return err
	} else if _, err := statement.Exec(migrationId); err != nil {
		return err
	}

	logger.Debug.Printf("Running migration %d: %s", migration.id, migration.description)
	_, err := session.SQL().Exec(migration.query)
	return err
}

func (s *Database) findAlreadyRunMigrations(session db.Session) (map[MigrationId]bool, error) {
	var runMigrationIds []Migration
	if err := session.Collection("migration").Find().All(&runMigrationIds); err != nil {
		return nil, err
	} else {
		var migrationStatusesById = map[MigrationId]bool{}
		for _, migration := range runMigrationIds {
			migrationStatusesById[migration.Id] = true
		}
		return migrationStatusesById, nil
	}
}

func (s *Database) Close() {
	logger.Debug.Printf("Closing database %s", s.dbPath)
	if s.session != nil {
		if err := s.session.Close(); err != nil {
			logger.Error.Print("Error while trying to close database ", err)
		}
		s.session = nil
	} else {
		logger.Warn.Printf("No database instance to close")
	}
}
