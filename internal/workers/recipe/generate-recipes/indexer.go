// internal/workers/recipe/generate-recipes/indexer.go
package generaterecipes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mealmatch-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type recipeDocument struct {
	RecipeID    string    `json:"recipeId"`
	SetID       string    `json:"setId"`
	Title       string    `json:"title"`
	Cuisine     string    `json:"cuisine"`
	Description string    `json:"description"`
	UserIDs     []string  `json:"userIds"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RecipeID is the id a single recipe of a set is known by in search results
// and favorites.
func RecipeID(setID string, position int) string {
	return fmt.Sprintf("%s-%d", setID, position)
}

// ESIndexer writes one document per recipe of a set.
type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{client: client, index: index}
}

func (i *ESIndexer) IndexRecipes(ctx context.Context, set *models.RecipeSet) error {
	for pos, r := range set.Recipes {
		doc := recipeDocument{
			RecipeID:    RecipeID(set.ID, pos),
			SetID:       set.ID,
			Title:       r.Title,
			Cuisine:     r.Cuisine,
			Description: r.Description,
			UserIDs:     set.UserIDs,
			CreatedAt:   set.CreatedAt,
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}

		req := esapi.IndexRequest{
			Index:      i.index,
			DocumentID: doc.RecipeID,
			Body:       bytes.NewReader(body),
		}
		res, err := req.Do(ctx, i.client)
		if err != nil {
			return fmt.Errorf("index recipe %s: %w", doc.RecipeID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("index recipe %s: %s", doc.RecipeID, res.Status())
		}
	}
	return nil
}
