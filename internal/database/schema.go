package database

// ColumnInfo describes a single column in a table.
type ColumnInfo struct {
	Name         string  `json:"name"`
	DataType     string  `json:"data_type"`
	Nullable     bool    `json:"nullable"`
	Default      *string `json:"default,omitempty"`
	MaxLength    *int    `json:"max_length,omitempty"`
	IsPrimaryKey bool    `json:"is_primary_key"`
	IsUnique     bool    `json:"is_unique"`
}

// TableInfo describes a table and its columns, as returned by the schema
// endpoints. Drivers populate it from information_schema.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}
