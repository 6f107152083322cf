package checklist

import "errors"

var (
	ErrItemNotFound  = errors.New("checklist item not found")
	ErrUnknownItemID = errors.New("unknown checklist item id")
)
