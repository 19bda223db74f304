package engine

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateOrder = errors.New("order already rests in the book")
	ErrOrderTerminal  = errors.New("order is filled or canceled")
	ErrOrderNotFound  = errors.New("order not found in the book")
)

// Rule names a construction invariant of an Order.
type Rule string

const (
	RuleOrderWithoutExpirationDate     Rule = "ORDER_WITHOUT_EXPIRATION_DATE"
	RuleOrderWithExpirationDate        Rule = "ORDER_WITH_EXPIRATION_DATE"
	RuleDayOrderNotInSameDay           Rule = "DAY_ORDER_NOT_IN_SAME_DAY"
	RuleExpirationDateBeforeCreation   Rule = "EXPIRATION_DATE_BEFORE_CREATION"
	RuleFilledDateBeforeCreation       Rule = "FILLED_DATE_BEFORE_CREATION"
	RuleFilledDateBeforeExpirationDate Rule = "FILLED_DATE_BEFORE_EXPIRATION_DATE"
	RuleInvalidShares                  Rule = "INVALID_SHARES"
	RuleInvalidUnitValue               Rule = "INVALID_UNIT_VALUE"
	RuleInvalidSide                    Rule = "INVALID_SIDE"
	RuleInvalidStatus                  Rule = "INVALID_STATUS"
	RuleInvalidExpirationPolicy        Rule = "INVALID_EXPIRATION_POLICY"
	RuleMissingShareholder             Rule = "MISSING_SHAREHOLDER"
	RuleMissingCreationDate            Rule = "MISSING_CREATION_DATE"
)

var ruleMessages = map[Rule]string{
	RuleOrderWithoutExpirationDate:     "orders with this expiration policy need an expiration date",
	RuleOrderWithExpirationDate:        "orders with this expiration policy must not have an expiration date",
	RuleDayOrderNotInSameDay:           "day orders must expire on the day they were created",
	RuleExpirationDateBeforeCreation:   "expiration date is before the order creation date",
	RuleFilledDateBeforeCreation:       "filled date is before the order creation date",
	RuleFilledDateBeforeExpirationDate: "filled date must not be after the order expiration date",
	RuleInvalidShares:                  "share quantity must be positive and not exceed the total",
	RuleInvalidUnitValue:               "unit value must be a positive decimal",
	RuleInvalidSide:                    "unknown order side",
	RuleInvalidStatus:                  "unknown order status",
	RuleInvalidExpirationPolicy:        "unknown expiration policy",
	RuleMissingShareholder:             "shareholder id is required",
	RuleMissingCreationDate:            "creation date is required",
}

// InvalidPropsError is returned when an Order cannot be built because one of
// its invariants does not hold. The caller should reject the originating
// request.
type InvalidPropsError struct {
	Rule    Rule
	Message string
}

func newInvalidProps(rule Rule) *InvalidPropsError {
	return &InvalidPropsError{Rule: rule, Message: ruleMessages[rule]}
}

func (e *InvalidPropsError) Error() string {
	return fmt.Sprintf("invalid order props: %s: %s", e.Rule, e.Message)
}

// IsRule reports whether err is an InvalidPropsError for rule.
func IsRule(err error, rule Rule) bool {
	var perr *InvalidPropsError
	return errors.As(err, &perr) && perr.Rule == rule
}
