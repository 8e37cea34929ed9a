package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"gorm.io/gorm"

	"github.com/Leganyst/charter-scheduling/internal/aggregate"
	"github.com/Leganyst/charter-scheduling/internal/calendar"
	"github.com/Leganyst/charter-scheduling/internal/model"
	"github.com/Leganyst/charter-scheduling/internal/sequence"
)

const SchedulingServiceName = "charter.scheduling.v1.SchedulingService"

// maxPage bounds the page number accepted by ListReservations.
const maxPage = 1_000_000

// SchedulingServer is the gRPC surface of the scheduling core. Requests and
// responses are google.protobuf.Struct documents; times are RFC 3339 strings.
type SchedulingServer interface {
	CheckAvailability(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AllocateBookingNumber(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDrivingBudget(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMaintenanceOverview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTripOccupancy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListReservations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type schedulingMethod func(SchedulingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call schedulingMethod) grpc.MethodDesc {
	fullMethod := "/" + SchedulingServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SchedulingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SchedulingServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var SchedulingServiceDesc = grpc.ServiceDesc{
	ServiceName: SchedulingServiceName,
	HandlerType: (*SchedulingServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CheckAvailability", SchedulingServer.CheckAvailability),
		unaryHandler("AllocateBookingNumber", SchedulingServer.AllocateBookingNumber),
		unaryHandler("GetDrivingBudget", SchedulingServer.GetDrivingBudget),
		unaryHandler("GetMaintenanceOverview", SchedulingServer.GetMaintenanceOverview),
		unaryHandler("GetTripOccupancy", SchedulingServer.GetTripOccupancy),
		unaryHandler("ListReservations", SchedulingServer.ListReservations),
		unaryHandler("CreateBooking", SchedulingServer.CreateBooking),
		unaryHandler("CancelBooking", SchedulingServer.CancelBooking),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "charter/scheduling/v1/scheduling.proto",
}

func RegisterSchedulingServer(s grpc.ServiceRegistrar, srv SchedulingServer) {
	s.RegisterService(&SchedulingServiceDesc, srv)
}

// SchedulingClient calls SchedulingServer methods by name.
type SchedulingClient struct {
	cc grpc.ClientConnInterface
}

func NewSchedulingClient(cc grpc.ClientConnInterface) *SchedulingClient {
	return &SchedulingClient{cc: cc}
}

func (c *SchedulingClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+SchedulingServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SchedulingGRPC adapts SchedulingService to SchedulingServer.
type SchedulingGRPC struct {
	svc *SchedulingService
}

func NewSchedulingGRPC(svc *SchedulingService) *SchedulingGRPC {
	return &SchedulingGRPC{svc: svc}
}

func (g *SchedulingGRPC) CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resourceID, kind, err := resourceFields(req)
	if err != nil {
		return nil, err
	}
	start, err := timeField(req, "start")
	if err != nil {
		return nil, err
	}
	end, err := timeField(req, "end")
	if err != nil {
		return nil, err
	}

	c := calendar.Candidate{
		ResourceID: resourceID,
		Kind:       kind,
		Range:      calendar.TimeRange{Start: start, End: end},
	}
	if raw := stringField(req, "exclude_reservation_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "exclude_reservation_id: %v", err)
		}
		c.ExcludeReservationID = id
	}

	res, err := g.svc.CheckAvailability(ctx, c)
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]any{
		"available": res.Available,
		"conflicts": reservationsToList(res.Conflicts),
		"message":   res.Message,
	})
}

func (g *SchedulingGRPC) AllocateBookingNumber(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var (
		number string
		err    error
	)
	if key := stringField(req, "year_month_key"); key != "" {
		number, err = g.svc.AllocateBookingNumberFor(ctx, key)
	} else {
		now, terr := timeField(req, "now")
		if terr != nil {
			return nil, terr
		}
		number, err = g.svc.AllocateBookingNumber(ctx, now)
	}
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]any{"booking_number": number})
}

func (g *SchedulingGRPC) GetDrivingBudget(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	driverID := stringField(req, "driver_id")
	if driverID == "" {
		return nil, status.Error(codes.InvalidArgument, "driver_id is required")
	}
	asOf, err := timeField(req, "as_of")
	if err != nil {
		return nil, err
	}

	ledger, err := g.svc.DrivingBudget(ctx, driverID, asOf)
	if err != nil {
		return nil, toStatus(err)
	}
	rem := ledger.Remaining()

	return newStruct(map[string]any{
		"driver_id":           ledger.DriverID,
		"date":                ledger.Date.Format(time.DateOnly),
		"consumed_today":      ledger.ConsumedMinutesDriving,
		"consumed_week":       ledger.ConsumedMinutesWeek,
		"daily_remaining":     rem.Daily,
		"weekly_remaining":    rem.Weekly,
		"effective_remaining": rem.Effective(),
		"warnings":            warningsToList(ledger.Warnings),
	})
}

func (g *SchedulingGRPC) GetMaintenanceOverview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	busID := stringField(req, "bus_id")
	if busID == "" {
		return nil, status.Error(codes.InvalidArgument, "bus_id is required")
	}
	now, err := timeField(req, "now")
	if err != nil {
		return nil, err
	}

	states, err := g.svc.MaintenanceOverview(ctx, busID, now)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(states))
	for _, st := range states {
		item := map[string]any{
			"type":       string(st.Type),
			"has_window": st.Window != nil,
			"due_soon":   st.DueSoon,
			"overdue":    st.Overdue,
			"warnings":   warningsToList(st.Warnings),
		}
		if st.Window != nil {
			item["window_id"] = st.Window.ID.String()
			item["due_date"] = st.Window.Due().Format(time.DateOnly)
			item["days_until_due"] = st.DaysUntilDue
		}
		items = append(items, item)
	}

	return newStruct(map[string]any{"bus_id": busID, "windows": items})
}

func (g *SchedulingGRPC) GetTripOccupancy(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tripID := stringField(req, "trip_id")
	occ := g.svc.TripOccupancy(tripID, intField(req, "current_passengers"), intField(req, "max_passengers"))

	return newStruct(map[string]any{
		"trip_id":         tripID,
		"occupancy_rate":  occ.Rate,
		"available_seats": occ.AvailableSeats,
		"warnings":        warningsToList(occ.Warnings),
	})
}

func (g *SchedulingGRPC) ListReservations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resourceID, kind, err := resourceFields(req)
	if err != nil {
		return nil, err
	}
	window, err := rangeFields(req, "from", "to")
	if err != nil {
		return nil, err
	}
	pageNo, err := boundedIntField(req, "page", maxPage)
	if err != nil {
		return nil, err
	}
	pageSize, err := boundedIntField(req, "page_size", calendar.MaxPageSize)
	if err != nil {
		return nil, err
	}

	page, err := g.svc.ListReservations(ctx, resourceID, kind, window, pageNo, pageSize)
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]any{
		"items":     reservationsToList(page.Items),
		"page":      page.Page,
		"page_size": page.PageSize,
		"total":     page.Total,
		"has_next":  page.HasNext,
		"has_prev":  page.HasPrev,
	})
}

func (g *SchedulingGRPC) CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	trip, err := rangeFields(req, "start", "end")
	if err != nil {
		return nil, err
	}
	now, err := timeField(req, "now")
	if err != nil {
		return nil, err
	}

	booking, reservations, err := g.svc.CreateBooking(ctx, BookingRequest{
		BusID:    stringField(req, "bus_id"),
		DriverID: stringField(req, "driver_id"),
		Range:    trip,
		Status:   model.ReservationStatus(strings.ToUpper(stringField(req, "status"))),
		Comment:  stringField(req, "comment"),
	}, now)
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]any{
		"booking_id":     booking.ID.String(),
		"booking_number": booking.BookingNumber,
		"status":         string(booking.Status),
		"reservations":   reservationsToList(reservations),
	})
}

func (g *SchedulingGRPC) CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	bookingID := stringField(req, "booking_id")
	if _, err := uuid.Parse(bookingID); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "booking_id: %v", err)
	}
	now, err := timeField(req, "now")
	if err != nil {
		return nil, err
	}

	if err := g.svc.CancelBooking(ctx, bookingID, now); err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"booking_id": bookingID, "status": string(model.ReservationStatusCancelled)})
}

// UnaryLoggingInterceptor logs every call with its duration and status code.
func UnaryLoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		level := slog.LevelInfo
		if code != codes.OK && code != codes.InvalidArgument && code != codes.FailedPrecondition {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "grpc call",
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return resp, err
	}
}

func toStatus(err error) error {
	var conflict *calendar.ConflictError
	switch {
	case errors.Is(err, calendar.ErrInvalidInterval),
		errors.Is(err, sequence.ErrInvalidYearMonthKey),
		errors.Is(err, ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &conflict):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, sequence.ErrCounterPersistence):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func resourceFields(req *structpb.Struct) (string, model.ResourceKind, error) {
	resourceID := stringField(req, "resource_id")
	if resourceID == "" {
		return "", "", status.Error(codes.InvalidArgument, "resource_id is required")
	}
	kind := model.ResourceKind(strings.ToUpper(stringField(req, "resource_kind")))
	if !kind.Valid() {
		return "", "", status.Errorf(codes.InvalidArgument, "resource_kind must be BUS or DRIVER, got %q", kind)
	}
	return resourceID, kind, nil
}

func stringField(req *structpb.Struct, name string) string {
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}

func intField(req *structpb.Struct, name string) int {
	return int(req.GetFields()[name].GetNumberValue())
}

// boundedIntField reads an optional whole number in [0, limit]. Absent means 0.
func boundedIntField(req *structpb.Struct, name string, limit int) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}
	num, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	f := num.NumberValue
	if f != math.Trunc(f) || f < 0 || f > float64(limit) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer between 0 and %d", name, limit)
	}
	return int(f), nil
}

// rangeFields parses two RFC 3339 fields into an interval.
func rangeFields(req *structpb.Struct, startName, endName string) (calendar.TimeRange, error) {
	start, err := timeField(req, startName)
	if err != nil {
		return calendar.TimeRange{}, err
	}
	end, err := timeField(req, endName)
	if err != nil {
		return calendar.TimeRange{}, err
	}
	tr, err := calendar.NewTimeRange(start, end)
	if err != nil {
		return calendar.TimeRange{}, status.Errorf(codes.InvalidArgument, "%s/%s: %v", startName, endName, err)
	}
	return tr, nil
}

func timeField(req *structpb.Struct, name string) (time.Time, error) {
	raw := stringField(req, name)
	if raw == "" {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s: %v", name, err)
	}
	return t, nil
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func reservationsToList(items []model.Reservation) []any {
	out := make([]any, 0, len(items))
	for _, r := range items {
		out = append(out, map[string]any{
			"id":            r.ID.String(),
			"resource_id":   r.ResourceID,
			"resource_kind": string(r.ResourceKind),
			"starts_at":     r.StartsAt.UTC().Format(time.RFC3339),
			"ends_at":       r.EndsAt.UTC().Format(time.RFC3339),
			"status":        string(r.Status),
		})
	}
	return out
}

func warningsToList(warnings []aggregate.DataIntegrityWarning) []any {
	out := make([]any, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, map[string]any{
			"code":    string(w.Code),
			"subject": w.Subject,
			"message": w.Message,
		})
	}
	return out
}
