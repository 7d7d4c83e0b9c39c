package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostbridge/hostbridge/internal/instrumentation"
	"github.com/hostbridge/hostbridge/internal/logging"
	"github.com/hostbridge/hostbridge/internal/pms"
	"github.com/hostbridge/hostbridge/internal/tools/common"
	"github.com/hostbridge/hostbridge/internal/tools/message_tools"
	"github.com/hostbridge/hostbridge/internal/tools/property_tools"
	"github.com/hostbridge/hostbridge/internal/tools/reservation_tools"
)

// Adapter is a stateless tool implementation: it validates the caller's
// parameters, translates them into upstream calls, and returns either a
// JSON-serializable result or a classified error.
type Adapter func(ctx context.Context, args map[string]any) (any, error)

// Dispatcher routes tool-call envelopes to the adapter table.
type Dispatcher struct {
	tools    map[string]Adapter
	manifest json.RawMessage
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// New builds a Dispatcher over the given upstream client. The manifest is an
// external collaborator served unchanged. In read-only mode the write tools
// stay registered but refuse to run.
func New(client *pms.Client, manifest json.RawMessage, readOnly bool, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		tools:    make(map[string]Adapter),
		manifest: manifest,
		logger:   logger,
	}

	bind := func(name string, fn func(context.Context, *pms.Client, map[string]any) (any, error)) {
		d.tools[name] = func(ctx context.Context, args map[string]any) (any, error) {
			return fn(ctx, client, args)
		}
	}
	bindWrite := func(name string, fn func(context.Context, *pms.Client, map[string]any) (any, error)) {
		if readOnly {
			d.tools[name] = func(context.Context, map[string]any) (any, error) {
				return nil, common.Validationf("%s is disabled in read-only mode; start the server with --yolo to enable write operations", name)
			}
			return
		}
		bind(name, fn)
	}

	bind("list_properties", property_tools.ListProperties)
	bind("get_property", property_tools.GetProperty)
	bind("check_availability", property_tools.CheckAvailability)
	bind("list_reservations", reservation_tools.ListReservations)
	bind("get_reservation", reservation_tools.GetReservation)
	bindWrite("create_reservation", reservation_tools.CreateReservation)
	bindWrite("send_guest_message", message_tools.SendGuestMessage)
	bind("get_guest_messages", message_tools.GetGuestMessages)

	return d
}

// SetMetrics attaches a metrics recorder for tool invocations.
func (d *Dispatcher) SetMetrics(m *instrumentation.Metrics) {
	d.metrics = m
}

// Tools returns the registered tool names. Used by tests and the manifest
// consistency check at startup.
func (d *Dispatcher) Tools() []string {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	return names
}

// Handle processes one envelope and returns the HTTP-equivalent status code
// together with the response envelope to encode.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte) (int, any) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return http.StatusBadRequest, errorEnvelope(common.KindValidation,
			fmt.Sprintf("invalid envelope: %v", err), nil)
	}

	switch env.Type {
	case TypePing:
		return http.StatusOK, PongEnvelope{Type: TypePong}

	case TypeManifest:
		return http.StatusOK, d.manifest

	case TypeToolCall:
		return d.dispatch(ctx, env)

	default:
		return http.StatusBadRequest, errorEnvelope(common.KindValidation,
			fmt.Sprintf("unsupported envelope type: %q", env.Type), nil)
	}
}

// dispatch runs a tool call against the adapter table.
func (d *Dispatcher) dispatch(ctx context.Context, env Envelope) (int, any) {
	adapter, ok := d.tools[env.ToolName]
	if !ok {
		return http.StatusBadRequest, errorEnvelope(common.KindValidation,
			"Unknown tool: "+env.ToolName, nil)
	}

	logger := logging.WithTool(d.logger, env.ToolName)

	start := time.Now()
	result, err := adapter(ctx, env.ToolParams)
	duration := time.Since(start)

	if err != nil {
		toolErr := common.Classify(err)
		d.recordInvocation(ctx, env.ToolName, instrumentation.StatusError, duration)
		logger.Warn("tool call failed",
			logging.Status(logging.StatusError),
			slog.String("kind", string(toolErr.Kind)),
			logging.Err(err))
		return toolErr.HTTPStatus(), ErrorEnvelope{
			Type: TypeError,
			Error: ErrorBody{
				Type:    string(toolErr.Kind),
				Message: toolErr.Message,
				Details: toolErr.Details,
			},
		}
	}

	d.recordInvocation(ctx, env.ToolName, instrumentation.StatusSuccess, duration)
	logger.Debug("tool call completed",
		logging.Status(logging.StatusSuccess),
		slog.Duration(logging.KeyDuration, duration))

	return http.StatusOK, ResultEnvelope{
		Type:   TypeResult,
		CallID: env.CallID,
		Result: result,
	}
}

func (d *Dispatcher) recordInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.RecordToolInvocation(ctx, tool, status, duration)
}

func errorEnvelope(kind common.ErrorKind, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{
		Type: TypeError,
		Error: ErrorBody{
			Type:    string(kind),
			Message: message,
			Details: details,
		},
	}
}
