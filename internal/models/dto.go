package models

// WriteResult mirrors the acknowledgement documents returned by the store's
// insert/update/delete operations, which clients already consume.
type WriteResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	InsertedID    string `json:"insertedId,omitempty"`
	MatchedCount  *int64 `json:"matchedCount,omitempty"`
	ModifiedCount *int64 `json:"modifiedCount,omitempty"`
	DeletedCount  *int64 `json:"deletedCount,omitempty"`
}

func InsertResult(id string) *WriteResult {
	return &WriteResult{Acknowledged: true, InsertedID: id}
}

func UpdateResult(affected int64) *WriteResult {
	matched, modified := affected, affected
	return &WriteResult{Acknowledged: true, MatchedCount: &matched, ModifiedCount: &modified}
}

func DeleteResult(affected int64) *WriteResult {
	return &WriteResult{Acknowledged: true, DeletedCount: &affected}
}
