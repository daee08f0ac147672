package youtube

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// viewWeight controls how much a candidate's popularity nudges its embedding
// similarity score.
const viewWeight = 0.01

// Ranker scores candidates against the user's title/author query using
// embedding similarity plus a view-count bonus.
type Ranker struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger zerolog.Logger
}

// NewRanker builds a Ranker on top of an OpenAI client.
func NewRanker(client *openai.Client, model string, logger zerolog.Logger) *Ranker {
	return &Ranker{
		client: client,
		model:  openai.EmbeddingModel(model),
		logger: logger.With().Str("component", "ranker").Logger(),
	}
}

// Best returns the highest-scoring candidate for the given title and author.
func (r *Ranker) Best(ctx context.Context, title, author string, candidates []Candidate) (*Candidate, error) {
	if len(candidates) == 0 {
		return nil, errors.New("no candidates to rank")
	}

	inputs := make([]string, 0, len(candidates)+1)
	inputs = append(inputs, fmt.Sprintf("The original music video called %s by %s.", title, author))
	for _, c := range candidates {
		inputs = append(inputs, candidateDescription(c))
	}

	resp, err := r.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: r.model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "embedding request failed")
	}
	if len(resp.Data) != len(inputs) {
		return nil, errors.Errorf("expected %d embeddings, got %d", len(inputs), len(resp.Data))
	}

	query := resp.Data[0].Embedding
	best := -1
	bestScore := math.Inf(-1)
	for i, c := range candidates {
		s := score(cosineSimilarity(query, resp.Data[i+1].Embedding), c.ViewCount)
		r.logger.Info().
			Str("title", c.Title).
			Str("channel", c.Channel).
			Int64("views", c.ViewCount).
			Float64("score", s).
			Msg("scored candidate")
		if s > bestScore {
			bestScore = s
			best = i
		}
	}

	r.logger.Info().Str("title", candidates[best].Title).Float64("score", bestScore).Msg("best match found")
	return &candidates[best], nil
}

func candidateDescription(c Candidate) string {
	return fmt.Sprintf("Video titled %s from channel %s", c.Title, c.Channel)
}

// score combines embedding similarity with a logarithmic view-count bonus.
func score(similarity float64, views int64) float64 {
	if views < 0 {
		views = 0
	}
	return similarity + viewWeight*math.Log10(float64(views)+1)
}

// cosineSimilarity returns the cosine of the angle between two embedding
// vectors, or 0 when either has no magnitude.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
