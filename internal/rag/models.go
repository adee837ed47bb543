package rag

// Page
// Texto de uma página, como sai do loader.
type Page struct {
	Number int
	Text   string
}

// Document
// Sequência ordenada de páginas; não muda depois de carregada.
type Document struct {
	Source string
	Pages  []Page
}

// Chunk
// Um pedaço de uma página, com sobreposição com o anterior.
// Offset é a posição (em runas) do Text dentro da página já com trim.
type Chunk struct {
	Text          string
	SourcePage    int
	SequenceIndex int
	Offset        int
}

// RecordMetadata
// Vai junto de cada embedding no cmetadata (jsonb).
type RecordMetadata struct {
	Source         string `json:"source,omitempty"`
	SourcePage     int    `json:"page"`
	SequenceIndex  int    `json:"sequence_index"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// IndexedRecord
// Unidade gravada numa coleção. Todos os registros de uma coleção usam o
// mesmo modelo de embedding e a mesma dimensão.
type IndexedRecord struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  RecordMetadata
}

// Passage is one ranked retrieval hit.
type Passage struct {
	Text     string
	Score    float64
	Metadata RecordMetadata
}

// RetrievalResult is ordered by descending similarity.
type RetrievalResult []Passage

// PromptContext pairs the assembled context with the raw question.
type PromptContext struct {
	Context  string
	Question string
}

// AskRequest
// Payload do /ask e de cada pergunta do chat.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"topK,omitempty"` // opcional; 0 usa o TOP_K configurado
	Lang     string `json:"lang,omitempty"` // opcional; en, pt, es ou auto
}

// AskResponse
// Resposta do modelo + quantos trechos foram usados.
type AskResponse struct {
	Answer   string `json:"answer"`
	Passages int    `json:"passages"`
}

// IngestReport describes one ingestion run.
type IngestReport struct {
	Collection     string
	Pages          int
	Chunks         int
	Stored         int
	EmbeddingModel string
}
