package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	roomsServiceName        = "roombook.v1.RoomsService"
	reservationsServiceName = "roombook.v1.ReservationsService"
	reportsServiceName      = "roombook.v1.ReportsService"
)

type RoomsServiceServer interface {
	CreateRoom(ctx context.Context, req *CreateRoomRequest) (*RoomResponse, error)
	UpdateRoom(ctx context.Context, req *UpdateRoomRequest) (*RoomResponse, error)
	DeleteRoom(ctx context.Context, req *RoomIDRequest) (*RoomResponse, error)
	GetRoom(ctx context.Context, req *RoomIDRequest) (*RoomResponse, error)
	ListRooms(ctx context.Context, req *ListRoomsRequest) (*ListRoomsResponse, error)
	ListBusyPeriods(ctx context.Context, req *RoomIDRequest) (*ListReservationsResponse, error)
}

type ReservationsServiceServer interface {
	CreateReservation(ctx context.Context, req *CreateReservationRequest) (*ReservationResponse, error)
	UpdateReservation(ctx context.Context, req *UpdateReservationRequest) (*ReservationResponse, error)
	DeleteReservation(ctx context.Context, req *ReservationIDRequest) (*ReservationResponse, error)
	GetReservation(ctx context.Context, req *ReservationIDRequest) (*ReservationResponse, error)
	ListMyReservations(ctx context.Context, req *ListReservationsRequest) (*ListReservationsResponse, error)
	ListReservations(ctx context.Context, req *ListReservationsRequest) (*ListReservationsResponse, error)
}

type ReportsServiceServer interface {
	CountInWindow(ctx context.Context, req *WindowRequest) (*CountInWindowResponse, error)
	ExportWindow(ctx context.Context, req *ExportWindowRequest) (*ExportWindowResponse, error)
}

// unaryMethod adapts a typed handler to grpc.MethodDesc, decoding the request
// with the call's codec and running the server's interceptor chain.
func unaryMethod[S, Req, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var roomsServiceDesc = grpc.ServiceDesc{
	ServiceName: roomsServiceName,
	HandlerType: (*RoomsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(roomsServiceName, "CreateRoom", RoomsServiceServer.CreateRoom),
		unaryMethod(roomsServiceName, "UpdateRoom", RoomsServiceServer.UpdateRoom),
		unaryMethod(roomsServiceName, "DeleteRoom", RoomsServiceServer.DeleteRoom),
		unaryMethod(roomsServiceName, "GetRoom", RoomsServiceServer.GetRoom),
		unaryMethod(roomsServiceName, "ListRooms", RoomsServiceServer.ListRooms),
		unaryMethod(roomsServiceName, "ListBusyPeriods", RoomsServiceServer.ListBusyPeriods),
	},
	Metadata: "roombook/v1/rooms",
}

var reservationsServiceDesc = grpc.ServiceDesc{
	ServiceName: reservationsServiceName,
	HandlerType: (*ReservationsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(reservationsServiceName, "CreateReservation", ReservationsServiceServer.CreateReservation),
		unaryMethod(reservationsServiceName, "UpdateReservation", ReservationsServiceServer.UpdateReservation),
		unaryMethod(reservationsServiceName, "DeleteReservation", ReservationsServiceServer.DeleteReservation),
		unaryMethod(reservationsServiceName, "GetReservation", ReservationsServiceServer.GetReservation),
		unaryMethod(reservationsServiceName, "ListMyReservations", ReservationsServiceServer.ListMyReservations),
		unaryMethod(reservationsServiceName, "ListReservations", ReservationsServiceServer.ListReservations),
	},
	Metadata: "roombook/v1/reservations",
}

var reportsServiceDesc = grpc.ServiceDesc{
	ServiceName: reportsServiceName,
	HandlerType: (*ReportsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(reportsServiceName, "CountInWindow", ReportsServiceServer.CountInWindow),
		unaryMethod(reportsServiceName, "ExportWindow", ReportsServiceServer.ExportWindow),
	},
	Metadata: "roombook/v1/reports",
}

func RegisterRoomsServiceServer(s grpc.ServiceRegistrar, srv RoomsServiceServer) {
	s.RegisterService(&roomsServiceDesc, srv)
}

func RegisterReservationsServiceServer(s grpc.ServiceRegistrar, srv ReservationsServiceServer) {
	s.RegisterService(&reservationsServiceDesc, srv)
}

func RegisterReportsServiceServer(s grpc.ServiceRegistrar, srv ReportsServiceServer) {
	s.RegisterService(&reportsServiceDesc, srv)
}
