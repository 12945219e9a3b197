package frame

import "fmt"

// 列式数据错误

// ErrColumnNotFound 列不存在错误
type ErrColumnNotFound struct {
	ColumnName string
}

func (e *ErrColumnNotFound) Error() string {
	return fmt.Sprintf("column %s not found", e.ColumnName)
}

// ErrDuplicateColumn 列名重复错误
type ErrDuplicateColumn struct {
	ColumnName string
}

func (e *ErrDuplicateColumn) Error() string {
	return fmt.Sprintf("duplicate column name %s", e.ColumnName)
}

// ErrLengthMismatch 列长度不一致错误
type ErrLengthMismatch struct {
	ColumnName string
	Expected   int
	Actual     int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("column %s has length %d, expected %d", e.ColumnName, e.Actual, e.Expected)
}

// ErrSchemaMismatch 类型或结构不一致错误
type ErrSchemaMismatch struct {
	Expected string
	Actual   string
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("schema mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// ErrInvalidValue 值与列类型不匹配
type ErrInvalidValue struct {
	ColumnName string
	DType      DataType
	Value      interface{}
}

func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("value %v (%T) is not valid for column %s of type %s", e.Value, e.Value, e.ColumnName, e.DType)
}
