// Package server exposes the drawing pipeline, the tree gallery, the
// workshop figures and the quizzes over HTTP.
//
// # Routes
//
//	GET    /healthz
//	POST   /render?format=svg              body: {"tree": {...}, "options": {...}}
//	GET    /trees?limit=50
//	POST   /trees                          body: {"name": "...", "tree": {...}}
//	GET    /trees/{id}
//	DELETE /trees/{id}
//	GET    /trees/{id}/render.{format}     drawing options as query parameters
//	GET    /figures
//	GET    /figures/{name}.svg?small=true
//	GET    /quiz
//	GET    /quiz/{section}
//	POST   /quiz/{section}/{label}/check   body: {"question": 0, "answer": "6"}
//
// Errors are returned as {"code": "...", "message": "..."} with the status
// chosen by errors.HTTPStatus from pkg/errors.
package server
