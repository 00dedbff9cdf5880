// interceptors предоставляет набор gRPC-интерсепторов для серверной стороны.
package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// WithTimeout возвращает unary-интерсептор, навешивающий дедлайн d на контекст
// запроса, если дедлайна ещё нет. Уже заданный дедлайн не переопределяется;
// d <= 0 отключает интерсептор (контекст передаётся как есть).
//
// По истечении дедлайна handler обычно возвращает context.DeadlineExceeded,
// который gRPC-рантайм транслирует в codes.DeadlineExceeded.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		_, hasDeadline := ctx.Deadline()
		if d <= 0 || hasDeadline {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
