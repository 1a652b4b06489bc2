package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidOrder, "invalid order")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidOrder, err.Code)
	suite.Equal("invalid order", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeUnknownSymbol, "symbol never requested: %s", "AAPL")
	suite.NotNil(err)
	suite.Equal(ErrCodeUnknownSymbol, err.Code)
	suite.Equal("symbol never requested: AAPL", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeFetchFailed, cause, "failed to fetch prices")
	suite.NotNil(err)
	suite.Equal(ErrCodeFetchFailed, err.Code)
	suite.Equal("failed to fetch prices", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeFetchFailed, cause, "failed to fetch prices for symbol: %s", "AAPL")
	suite.NotNil(err)
	suite.Equal(ErrCodeFetchFailed, err.Code)
	suite.Equal("failed to fetch prices for symbol: AAPL", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidOrder, "invalid order")
	suite.Equal("[100] invalid order", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeUnknownSymbol, cause, "symbol never requested")
	suite.Equal("[200] symbol never requested: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeUnknownSymbol, cause, "symbol never requested")
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeInvalidOrder, "invalid order")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeInvalidOrder, "invalid order")
	suite.Equal(ErrCodeInvalidOrder, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeUnknownSymbol, "symbol never requested")
	err := Wrap(ErrCodeFetchFailed, cause, "failed to fetch prices")
	// GetCode should return the outermost error's code
	suite.Equal(ErrCodeFetchFailed, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromStandardError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeInvalidOrder, "invalid order")
	suite.True(HasCode(err, ErrCodeInvalidOrder))
	suite.False(HasCode(err, ErrCodeUnknownSymbol))
}

func (suite *ErrorTestSuite) TestIsError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeUnknownSymbol, cause, "symbol never requested")
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestAsError() {
	err := New(ErrCodeInvalidOrder, "invalid order")

	var coded *Error

	suite.True(As(err, &coded))
	suite.Equal(ErrCodeInvalidOrder, coded.Code)
}

func (suite *ErrorTestSuite) TestErrorCodeValues() {
	// Verify the category bases have expected values
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidOrder)
	suite.Equal(ErrorCode(200), ErrCodeUnknownSymbol)
	suite.Equal(ErrorCode(300), ErrCodePositionNotFound)
	suite.Equal(ErrorCode(400), ErrCodeInvalidDateRange)
	suite.Equal(ErrorCode(500), ErrCodeExportInitFailed)
	suite.Equal(ErrorCode(600), ErrCodeInvalidConfiguration)
}
