package models

import "time"

type IngredientItem struct {
	Ingredient string `json:"ingredient"`
	Quantity   string `json:"quantity"`
}

// DietaryGoals are daily gram targets. Zero means no goal is set.
type DietaryGoals struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

type DietaryRestrictions struct {
	Vegetarian bool     `json:"vegetarian"`
	Vegan      bool     `json:"vegan"`
	Kosher     bool     `json:"kosher"`
	GlutenFree bool     `json:"glutenFree"`
	DairyFree  bool     `json:"dairyFree"`
	Allergies  []string `json:"allergies"`
}

type Preferences struct {
	Cuisines []string `json:"cuisines"`
}

type AvailableAppliances struct {
	AirFryer   bool `json:"airFryer"`
	Microwave  bool `json:"microwave"`
	Oven       bool `json:"oven"`
	StoveTop   bool `json:"stoveTop"`
	SousVide   bool `json:"sousVide"`
	DeepFryer  bool `json:"deepFryer"`
	Blender    bool `json:"blender"`
	InstantPot bool `json:"instantPot"`
}

type UserProfile struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Email               string              `json:"email,omitempty"`
	Phone               string              `json:"phone,omitempty"`
	Image               string              `json:"image,omitempty"`
	Location            string              `json:"location,omitempty"`
	IngredientsList     []IngredientItem    `json:"ingredientsList"`
	DietaryGoals        DietaryGoals        `json:"dietaryGoals"`
	DietaryRestrictions DietaryRestrictions `json:"dietaryRestrictions"`
	Preferences         Preferences         `json:"preferences"`
	AvailableAppliances AvailableAppliances `json:"availableAppliances"`
	CreatedAt           time.Time           `json:"createdAt"`
}

// UserSummary is the public card shown for matches and match events.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

func (p *UserProfile) Summary() UserSummary {
	return UserSummary{ID: p.ID, Name: p.Name, Image: p.Image}
}

// ProfileUpdate is a partial profile change. Nil sections are left untouched.
type ProfileUpdate struct {
	Name                *string              `json:"name,omitempty"`
	Image               *string              `json:"image,omitempty"`
	Location            *string              `json:"location,omitempty"`
	Preferences         *Preferences         `json:"preferences,omitempty"`
	DietaryRestrictions *DietaryRestrictions `json:"dietaryRestrictions,omitempty"`
	AvailableAppliances *AvailableAppliances `json:"availableAppliances,omitempty"`
	DietaryGoals        *DietaryGoals        `json:"dietaryGoals,omitempty"`
	IngredientsList     *[]IngredientItem    `json:"ingredientsList,omitempty"`
}

// NutritionItem is one entry of a nutrition API response.
type NutritionItem struct {
	Name                string  `json:"name"`
	Calories            float64 `json:"calories"`
	ProteinG            float64 `json:"protein_g"`
	CarbohydratesTotalG float64 `json:"carbohydrates_total_g"`
	FatTotalG           float64 `json:"fat_total_g"`
}
