package domain

import (
	"github.com/yungbote/tabula-backend/internal/domain/dataset"
	"github.com/yungbote/tabula-backend/internal/domain/user"
)

type User = user.User

type DataSetMetadata = dataset.Metadata
type DataRecord = dataset.Record
type Document = dataset.Document
