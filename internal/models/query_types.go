package models

type QueryType string

const (
	QueryTypeUserProfile   QueryType = "user_profile"
	QueryTypeUserMatches   QueryType = "user_matches"
	QueryTypeConversation  QueryType = "conversation"
	QueryTypeCandidatePool QueryType = "candidate_pool"
)

const (
	SearchTypeRecipeSearch = "recipe_search"
	SearchTypeUserRecipes  = "user_recipes"
)
