package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func TestParseTransactionError(t *testing.T) {
	e, err := ParseTransactionError(decodeJSON(t, `{"InstructionError":[1,{"Custom":3}]}`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	require.NotNil(t, e.InstructionError())
	assert.Equal(t, 1, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	require.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(3), *e.InstructionError().CustomError())
	assert.Equal(t, "Error processing Instruction 1: custom program error: 3", e.Error())

	e, err = ParseTransactionError(decodeJSON(t, `{"InstructionError":[0,"AccountAlreadyInitialized"]}`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	assert.Equal(t, InstructionErrorAccountAlreadyInitialized, e.InstructionError().ErrorKey())
	assert.Nil(t, e.InstructionError().CustomError())

	e, err = ParseTransactionError(decodeJSON(t, `"BlockhashNotFound"`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorBlockhashNotFound, e.ErrorKey())
	assert.Nil(t, e.InstructionError())

	e, err = ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseTransactionError(decodeJSON(t, `{"a":1,"b":2}`))
	assert.Error(t, err)

	_, err = ParseTransactionError(decodeJSON(t, `{"InstructionError":[0]}`))
	assert.Error(t, err)
}

func TestParseRPCError(t *testing.T) {
	e, err := ParseRPCError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	e, err = ParseRPCError(&jsonrpc.RPCError{
		Code: -32002,
		Data: map[string]interface{}{
			"err": "InsufficientFundsForFee",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorInsufficientFundsForFee, e.ErrorKey())

	e, err = ParseRPCError(&jsonrpc.RPCError{
		Code: -32002,
		Data: map[string]interface{}{},
	})
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseRPCError(&jsonrpc.RPCError{Code: -32002, Data: "nope"})
	assert.Error(t, err)
}

func TestNewTransactionError(t *testing.T) {
	e := NewTransactionError(TransactionErrorDuplicateSignature)
	assert.Equal(t, TransactionErrorDuplicateSignature, e.ErrorKey())

	encoded, err := e.JSONString()
	require.NoError(t, err)
	assert.Equal(t, `"DuplicateSignature"`, encoded)
}

func TestParseJSONNumber(t *testing.T) {
	for i, c := range []interface{}{"1", 1.0, json.Number("1")} {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}

	_, err := parseJSONNumber(true)
	assert.Error(t, err)
}

func decodeJSON(t *testing.T, s string) interface{} {
	var raw interface{}
	require.NoError(t, json.NewDecoder(bytes.NewBufferString(s)).Decode(&raw))
	return raw
}
