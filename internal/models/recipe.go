package models

import "time"

type Recipe struct {
	Title       string `json:"title"`
	Cuisine     string `json:"cuisine"`
	Description string `json:"description"`
}

// RecipeSet is one generation result for a pair of users.
type RecipeSet struct {
	ID        string    `json:"id"`
	UserIDs   []string  `json:"userIds"`
	Markdown  string    `json:"markdown"`
	Recipes   []Recipe  `json:"recipes"`
	CreatedAt time.Time `json:"createdAt"`
}

type Favorite struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	RecipeID    string    `json:"recipeId"`
	Title       string    `json:"title"`
	Cuisine     string    `json:"cuisine"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
