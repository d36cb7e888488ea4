// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/tour/areas": {"get": {"tags": ["tour"], "summary": "Area codes", "responses": {"200": {"description": "OK"}}}},
        "/tour/places": {"get": {"tags": ["tour"], "summary": "Area list or keyword search", "responses": {"200": {"description": "OK"}, "502": {"description": "Upstream failure"}}}},
        "/tour/places/{contentID}": {"get": {"tags": ["tour"], "summary": "Place detail", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/restaurants/hot": {"get": {"tags": ["tour"], "summary": "Restaurants with like counts", "responses": {"200": {"description": "OK"}}}},
        "/foods/seasonal": {"get": {"tags": ["foods"], "summary": "Seasonal foods catalogue", "responses": {"200": {"description": "OK"}}}},
        "/foods/seasonal/{foodID}": {"get": {"tags": ["foods"], "summary": "One seasonal food", "responses": {"200": {"description": "OK"}}}},
        "/places/search": {"get": {"tags": ["places"], "summary": "Map keyword search", "responses": {"200": {"description": "OK"}}}},
        "/likes": {"get": {"tags": ["likes"], "summary": "Liked items", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/likes/counts": {"get": {"tags": ["likes"], "summary": "Like counts", "responses": {"200": {"description": "OK"}}}},
        "/likes/{kind}/{id}": {"get": {"tags": ["likes"], "summary": "Like state", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/likes/{kind}/{id}/toggle": {"post": {"tags": ["likes"], "summary": "Toggle like", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/recommend": {"post": {"tags": ["recommend"], "summary": "Food recommendation chat", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/enhance/food": {"post": {"tags": ["recommend"], "summary": "Food description", "responses": {"200": {"description": "OK"}}}},
        "/enhance/restaurant": {"post": {"tags": ["recommend"], "summary": "Restaurant description", "responses": {"200": {"description": "OK"}}}},
        "/trips/plan": {"post": {"tags": ["trips"], "summary": "Allocate a draft", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/trips/move": {"post": {"tags": ["trips"], "summary": "Move a draft place", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/diaries": {
            "get": {"tags": ["diaries"], "summary": "List diaries", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["diaries"], "summary": "Create diary", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/diaries/{diaryID}": {
            "get": {"tags": ["diaries"], "summary": "Diary detail", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["diaries"], "summary": "Delete diary", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/diaries/{diaryID}/cover": {"put": {"tags": ["diaries"], "summary": "Set cover", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/diaries/{diaryID}/move": {"post": {"tags": ["diaries"], "summary": "Reorder places", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/diaries/places/{placeID}/stamp": {"post": {"tags": ["diaries"], "summary": "Record stamp", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/me": {
            "get": {"tags": ["User"], "summary": "Profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["User"], "summary": "Update profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["User"], "summary": "Delete account", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/me/badges": {"get": {"tags": ["diaries"], "summary": "Badges", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Harunekki API",
	Description:      "Travel diary, seasonal food and restaurant backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
