package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

type reviewDoc struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	ProductID uint      `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewIndex mirrors reviews into an Elasticsearch index. The store stays
// the source of truth; search returns ids only.
type ReviewIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewReviewIndex(es *elasticsearch.Client, index string) *ReviewIndex {
	return &ReviewIndex{es: es, index: index}
}

func (ix *ReviewIndex) Index(ctx context.Context, r *models.Review) error {
	doc := reviewDoc{
		ID:        r.ID,
		UserID:    r.UserID,
		Username:  r.User.Username,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode review: %w", err)
	}

	res, err := ix.es.Index(ix.index, &buf,
		ix.es.Index.WithContext(ctx),
		ix.es.Index.WithDocumentID(strconv.FormatUint(uint64(r.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index review: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index review", res.Status(), res.Body)
	}
	return nil
}

func (ix *ReviewIndex) Delete(ctx context.Context, id uint) error {
	res, err := ix.es.Delete(ix.index, strconv.FormatUint(uint64(id), 10),
		ix.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return responseError("delete review", res.Status(), res.Body)
	}
	return nil
}

func (ix *ReviewIndex) Search(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"comment^2", "username"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.index),
		ix.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search reviews: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search reviews", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source struct {
					ID uint `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return r.Hits.Total.Value, ids, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 1024))
	return fmt.Errorf("%s: elasticsearch %s: %s", op, status, b)
}
