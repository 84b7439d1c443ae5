package models

// Chunk is one addressable unit of split document text. Chunks are keyed by
// (storeId, docId, chunkNo) with chunkNo 1-based within the owning loader.
type Chunk struct {
	ID          string `bson:"_id" json:"id"`
	DocID       string `bson:"doc_id" json:"docId"`
	StoreID     string `bson:"store_id" json:"storeId"`
	ChunkNo     int    `bson:"chunk_no" json:"chunkNo"`
	PageContent string `bson:"page_content" json:"pageContent"`
	Metadata    string `bson:"metadata" json:"metadata"`
}
