package testdata

type NoKey struct {
	Name string `db:"name"`
}

type Attachment struct {
	ID   int               `db:"id,primaryKey"`
	Meta map[string]string `db:"meta"`
}

type Orphan struct {
	ID        int    `db:"id,primaryKey"`
	OwnerType string `db:"owner_type,morphType" morph:"articles"`
}
