package core

import "github.com/pkg/errors"

type Operation string

const (
	OperationDeposit  Operation = "deposit"
	OperationWithdraw Operation = "withdraw"
)

func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OperationDeposit, OperationWithdraw:
		return Operation(s), nil
	default:
		return "", errors.Errorf("unknown operation %q", s)
	}
}

func (o Operation) String() string {
	switch o {
	case OperationDeposit:
		return "deposit"
	case OperationWithdraw:
		return "withdraw"
	default:
		return "unknown"
	}
}
