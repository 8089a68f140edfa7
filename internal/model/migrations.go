package model

// RAGModels lists the tables owned by the service.
func RAGModels() []interface{} {
	return []interface{}{
		&Document{},
		&DocumentChunk{},
		&CuratedQuestion{},
		&UnansweredQuestion{},
		&RetrievalQuery{},
		&UsageMetric{},
		&AiConfiguration{},
	}
}

func RAGSetupSQL() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
}

// RAGPostSQL creates HNSW cosine indexes so `<=>` searches honour hnsw.ef_search.
func RAGPostSQL() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding_hnsw
		 ON document_chunks USING hnsw (embedding vector_cosine_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_curated_questions_embedding_hnsw
		 ON curated_questions USING hnsw (question_embedding vector_cosine_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_tags_gin ON documents USING gin (tags);`,
	}
}
