package database

type MigrationId int64

type Migration struct {
	Id MigrationId `db:"id"`
}

type migration struct {
	id          MigrationId
	description string
	query       string
}

var migrations = []migration{
	{
		id:          0,
		description: "Archive tables",
		query: `
			CREATE TABLE archive_array (
			    position INTEGER PRIMARY KEY,
			    name TEXT NOT NULL,
			    dtype TEXT NOT NULL,
			    shape TEXT NOT NULL,
			    compression TEXT NOT NULL,
			    byte_size INTEGER NOT NULL,
			    data BLOB,

			    UNIQUE (name)
			);

			CREATE TABLE archive_meta (
			    key TEXT PRIMARY KEY,
			    value TEXT NOT NULL
			);
		`,
	},
}
