package emulator

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"geoclic/internal/domain/lexique"
)

func (e *Emulator) setupRefDataRoutes() {
	huma.Register(e.api, huma.Operation{
		OperationID: "lexique-list",
		Method:      http.MethodGet,
		Path:        "/api/lexique",
		Summary:     "Полный лексикон категорий",
		Tags:        []string{"refdata"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.listLexique)

	huma.Register(e.api, huma.Operation{
		OperationID: "project-list",
		Method:      http.MethodGet,
		Path:        "/api/projects",
		Summary:     "Список проектов",
		Tags:        []string{"refdata"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.listProjects)

	huma.Register(e.api, huma.Operation{
		OperationID: "champs-for-lexique",
		Method:      http.MethodGet,
		Path:        "/api/champs/lexique/{code}",
		Summary:     "Динамические поля категории",
		Tags:        []string{"refdata"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.listChamps)
}

type lexiqueOutput struct {
	Body []lexique.Item
}

func (e *Emulator) listLexique(_ context.Context, _ *struct{}) (*lexiqueOutput, error) {
	return &lexiqueOutput{Body: e.state.Lexique()}, nil
}

type projectsOutput struct {
	Body []lexique.Project
}

func (e *Emulator) listProjects(_ context.Context, _ *struct{}) (*projectsOutput, error) {
	return &projectsOutput{Body: e.state.Projects()}, nil
}

type champsInput struct {
	Code string `path:"code"`
}

type champsOutput struct {
	Body []lexique.ChampDynamique
}

func (e *Emulator) listChamps(_ context.Context, input *champsInput) (*champsOutput, error) {
	return &champsOutput{Body: e.state.ChampsForLexique(input.Code)}, nil
}
