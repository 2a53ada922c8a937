package grpcsvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

const (
	// IdempotencyKeyHeader — metadata-заголовок с ключом идемпотентности.
	IdempotencyKeyHeader  = "idempotency-key"
	defaultIdempotencyTTL = 24 * time.Hour
)

// withIdempotency выполняет handler не более одного раза для ключа из metadata.
// Повтор с тем же ключом и телом возвращает сохранённый ответ. Без ключа handler
// выполняется как обычно.
func withIdempotency[Req, Resp any](
	s *BillingService,
	ctx context.Context,
	method string,
	req *Req,
	handler func(context.Context) (*Resp, error),
) (*Resp, error) {
	key := readIdempotencyKey(ctx)
	if s.idempotency == nil || key == "" {
		return handler(ctx)
	}

	hash, err := requestHash(method, req)
	if err != nil {
		s.logger.WithError(err).WithField("method", method).Warn("failed to hash request")
		return nil, status.Error(codes.Internal, "failed to initialize idempotent request")
	}

	record, err := s.idempotency.CreateProcessing(key, hash, s.now().Add(s.idempotencyTTL))
	if err != nil {
		return replay[Resp](s, key, record, err)
	}

	resp, runErr := handler(ctx)
	if runErr != nil {
		code := status.Code(runErr)
		if markErr := s.idempotency.MarkFailed(key, []byte(status.Convert(runErr).Message()), int(code)); markErr != nil {
			s.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to store idempotent failure")
		}
		return nil, runErr
	}

	body, err := json.Marshal(resp)
	if err == nil {
		err = s.idempotency.MarkDone(key, body, int(codes.OK))
	}
	if err != nil {
		s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
	return resp, nil
}

func replay[Resp any](s *BillingService, key string, record domain.IdempotencyRecord, createErr error) (*Resp, error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		return nil, status.Error(codes.AlreadyExists, "idempotency key is already used with a different request")
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
	default:
		s.logger.WithError(createErr).WithField("idempotency_key", key).Warn("failed to create idempotency record")
		return nil, status.Error(codes.Internal, "failed to initialize idempotent request")
	}

	switch record.Status {
	case domain.IdempotencyStatusDone:
		resp := new(Resp)
		if err := json.Unmarshal(record.ResponseBody, resp); err != nil {
			s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to decode stored response")
			return nil, status.Error(codes.Internal, "failed to decode stored response")
		}
		s.logger.WithField("idempotency_key", key).Debug("idempotent response replayed")
		return resp, nil
	case domain.IdempotencyStatusProcessing:
		return nil, status.Error(codes.Aborted, "request with the same idempotency key is still processing")
	default:
		return nil, status.Error(codes.Aborted, "previous request with the same idempotency key failed")
	}
}

func readIdempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(IdempotencyKeyHeader); len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func requestHash(method string, req any) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(method+":"), data...))
	return hex.EncodeToString(sum[:]), nil
}
