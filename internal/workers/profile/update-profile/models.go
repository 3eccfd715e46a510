// internal/workers/profile/update-profile/models.go
package updateprofile

import "mealmatch-workers/internal/models"

// Input carries the user id next to the partial update fields.
type Input struct {
	UserID string `json:"userId"`
	models.ProfileUpdate
}

type Output struct {
	User *models.UserProfile `json:"user"`
}

const InputSchema = `{
  "type": "object",
  "required": ["userId"],
  "properties": {
    "userId":   {"type": "string", "minLength": 1},
    "name":     {"type": "string", "minLength": 1},
    "image":    {"type": "string"},
    "location": {"type": "string"},
    "preferences": {
      "type": "object",
      "properties": {
        "cuisines": {"type": "array", "items": {"type": "string"}}
      }
    },
    "dietaryRestrictions": {
      "type": "object",
      "properties": {
        "vegetarian": {"type": "boolean"},
        "vegan":      {"type": "boolean"},
        "kosher":     {"type": "boolean"},
        "glutenFree": {"type": "boolean"},
        "dairyFree":  {"type": "boolean"},
        "allergies":  {"type": "array", "items": {"type": "string"}}
      }
    },
    "availableAppliances": {
      "type": "object",
      "additionalProperties": {"type": "boolean"}
    },
    "dietaryGoals": {
      "type": "object",
      "properties": {
        "protein": {"type": "number", "minimum": 0},
        "carbs":   {"type": "number", "minimum": 0},
        "fats":    {"type": "number", "minimum": 0}
      }
    },
    "ingredientsList": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["ingredient"],
        "properties": {
          "ingredient": {"type": "string", "minLength": 1},
          "quantity":   {"type": "string"}
        }
      }
    }
  }
}`
