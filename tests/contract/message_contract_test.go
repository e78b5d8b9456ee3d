package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/rescuelink/rescue-go-api/internal/dto"
	"github.com/rescuelink/rescue-go-api/internal/handler"
)

type stubMessageService struct {
	response dto.MessageResponse
}

func (s stubMessageService) Send(context.Context, uint, dto.SendMessageRequest) (dto.MessageResponse, error) {
	return s.response, nil
}

func (s stubMessageService) List(context.Context, uint) ([]dto.MessageResponse, error) {
	return []dto.MessageResponse{s.response}, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func TestSendMessageResponseContract(t *testing.T) {
	schema := compileSchema(t, "message.schema.json")

	serviceStub := stubMessageService{response: dto.MessageResponse{
		ID:             11,
		ConversationID: 7,
		SenderID:       1,
		Sender:         dto.UserSummary{ID: 1, FirstName: "Alma", LastName: "Rivers", Avatar: "avatars/alma.png"},
		Text:           "hello",
		CreatedAt:      time.Now().UTC(),
	}}
	messageHandler := handler.NewMessageHandler(serviceStub, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	app := fiber.New()
	messageHandler.Register(app.Group("/api/message", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		return c.Next()
	}))

	body, err := json.Marshal(dto.SendMessageRequest{ConversationID: 7, Text: "hello"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/message", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}
