package models

import "time"

// UpsertHistory is one append-only record of a successful vector upsert: a
// snapshot of the collaborator composition that was used plus the result
// returned by the vector store (bulky bookkeeping fields stripped).
type UpsertHistory struct {
	ID       string    `bson:"_id" json:"id"`
	StoreID  string    `bson:"store_id" json:"storeId"`
	FlowData string    `bson:"flow_data" json:"flowData"`
	Result   string    `bson:"result" json:"result"`
	Date     time.Time `bson:"date" json:"date"`
}
