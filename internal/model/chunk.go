package model

type Chunk struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"chunk_text"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Ctime      int64     `json:"ctime"`
}

type ScoredChunk struct {
	Chunk
	Distance float64 `json:"distance"`
}

type DocumentStat struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	ChunkCount int64  `json:"chunk_count"`
	Ctime      int64  `json:"ctime"`
}
