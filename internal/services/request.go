package services

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/ctxutil"
)

func requestUserID(ctx context.Context) (primitive.ObjectID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID.IsZero() {
		return primitive.NilObjectID, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("authentication required"))
	}
	return rd.UserID, nil
}

// optionalUserID is the caller id when the request carries a valid token, otherwise NilObjectID.
func optionalUserID(ctx context.Context) primitive.ObjectID {
	if rd := ctxutil.GetRequestData(ctx); rd != nil {
		return rd.UserID
	}
	return primitive.NilObjectID
}

func ParseObjectID(raw, code string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apierr.New(http.StatusBadRequest, code, errors.New("invalid id"))
	}
	return id, nil
}
