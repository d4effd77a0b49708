package local

// itemRow is the generic stored form of an orderable collection item. The
// full record travels as JSON; hidden and rank are lifted into columns so
// the public query can filter and order server-side.
type itemRow struct {
	Collection  string `gorm:"column:collection;primaryKey;size:32;not null;index:idx_items_collection_rank,priority:1"`
	ItemID      string `gorm:"column:item_id;primaryKey;size:190;not null"`
	Hidden      bool   `gorm:"column:hidden;not null;default:false"`
	OrderRank   int    `gorm:"column:order_rank;not null;default:0;index:idx_items_collection_rank,priority:2"`
	PayloadJSON string `gorm:"column:payload_json;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (itemRow) TableName() string {
	return "content_items"
}

// singletonRow stores the singleton documents (site info, site settings).
type singletonRow struct {
	Name        string `gorm:"column:name;primaryKey;size:64;not null"`
	PayloadJSON string `gorm:"column:payload_json;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (singletonRow) TableName() string {
	return "singleton_documents"
}

// operatorRow holds an operator credential. Secrets are stored as SHA-256
// hex digests seeded from configuration.
type operatorRow struct {
	Identifier string `gorm:"column:identifier;primaryKey;size:190;not null"`
	SecretHash string `gorm:"column:secret_hash;size:64;not null"`
}

// TableName provides the explicit table binding for GORM.
func (operatorRow) TableName() string {
	return "operators"
}
