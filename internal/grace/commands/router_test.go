package commands_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artmatsak/grace/internal/grace/commands"
)

func echoRouter(t *testing.T) (*commands.Router, *[]map[string]string) {
	t.Helper()
	var calls []map[string]string
	r := commands.NewRouter()
	err := r.Add("book_table", "book a table", []string{"full_name", "num_people", "time"},
		func(_ context.Context, p map[string]string) (any, error) {
			calls = append(calls, p)
			return "REF123", nil
		},
		map[string]string{"full_name": "Jane Doe", "num_people": "2", "time": "2023-06-01 19:00:00"},
		"REF123")
	require.NoError(t, err)
	return r, &calls
}

func TestRouter_Invoke(t *testing.T) {
	r, calls := echoRouter(t)

	got, err := r.Invoke(context.Background(),
		` {"command": "book_table", "params": {"full_name": "Jeremiah Biggs", "num_people": 3, "time": "2023-06-23 20:00:00"}} `)
	require.NoError(t, err)
	assert.Equal(t, "REF123", got)
	require.Len(t, *calls, 1)
	assert.Equal(t, map[string]string{
		"full_name":  "Jeremiah Biggs",
		"num_people": "3",
		"time":       "2023-06-23 20:00:00",
	}, (*calls)[0])
}

func TestRouter_InvokeErrors(t *testing.T) {
	r, calls := echoRouter(t)

	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"not json", `book a table please`, commands.ErrMalformedPayload},
		{"not an object", `["book_table"]`, commands.ErrMalformedPayload},
		{"no command", `{"params": {}}`, commands.ErrMalformedPayload},
		{"params not object", `{"command": "book_table", "params": "x"}`, commands.ErrMalformedPayload},
		{"trailing data", `{"command": "book_table"} {}`, commands.ErrMalformedPayload},
		{"unknown", `{"command": "order_pizza", "params": {}}`, commands.ErrUnknownCommand},
		{"missing", `{"command": "book_table", "params": {"full_name": "A"}}`, commands.ErrMissingParam},
		{"no params", `{"command": "book_table"}`, commands.ErrMissingParam},
		{"unexpected", `{"command": "book_table", "params": {"full_name": "A", "num_people": 1, "time": "t", "vip": true}}`, commands.ErrInvalidParam},
		{"nested value", `{"command": "book_table", "params": {"full_name": {"first": "A"}, "num_people": 1, "time": "t"}}`, commands.ErrInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Invoke(context.Background(), tt.payload)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, *calls)
}

func TestRouter_MissingParamNamesTheParam(t *testing.T) {
	r, _ := echoRouter(t)
	_, err := r.Invoke(context.Background(), `{"command": "book_table", "params": {"full_name": "A", "time": "t"}}`)
	require.ErrorIs(t, err, commands.ErrMissingParam)
	assert.Contains(t, err.Error(), "num_people")
}

func TestRouter_HandlerError(t *testing.T) {
	r := commands.NewRouter()
	boom := errors.New("no tables left")
	require.NoError(t, r.Add("fail", "always fails", nil,
		func(context.Context, map[string]string) (any, error) { return nil, boom }, nil, ""))

	_, err := r.Invoke(context.Background(), `{"command": "fail"}`)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "fail: no tables left", err.Error())
}

func TestRouter_RenderResults(t *testing.T) {
	tests := []struct {
		name   string
		result any
		want   string
	}{
		{"string", "ok", "ok"},
		{"nil", nil, "OK"},
		{"int", 42, "42"},
		{"bool", true, "true"},
		{"map", map[string]int{"seats": 4}, `{"seats":4}`},
		{"slice", []string{"a", "b"}, `["a","b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := commands.NewRouter()
			require.NoError(t, r.Add("get", "", nil,
				func(context.Context, map[string]string) (any, error) { return tt.result, nil }, nil, ""))
			got, err := r.Invoke(context.Background(), `{"command": "get", "params": {}}`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouter_AddValidation(t *testing.T) {
	noop := func(context.Context, map[string]string) (any, error) { return nil, nil }
	r := commands.NewRouter()

	assert.ErrorIs(t, r.Add("", "", nil, noop, nil, ""), commands.ErrEmptyName)
	assert.ErrorIs(t, r.Add("two words", "", nil, noop, nil, ""), commands.ErrEmptyName)
	assert.ErrorIs(t, r.Add("c", "", []string{"a"}, noop, map[string]string{}, ""), commands.ErrInvalidExample)
	assert.ErrorIs(t, r.Add("c", "", nil, noop, map[string]string{"x": "1"}, ""), commands.ErrInvalidExample)
	assert.Error(t, r.Add("c", "", nil, nil, nil, ""))

	require.NoError(t, r.Add("c", "", nil, noop, nil, ""))
	assert.ErrorIs(t, r.Add("c", "", nil, noop, nil, ""), commands.ErrAlreadyExists)
}

func TestRouter_CommandsAndRendering(t *testing.T) {
	r, _ := echoRouter(t)
	noop := func(context.Context, map[string]string) (any, error) { return nil, nil }
	require.NoError(t, r.Add("cancel_booking", "cancel a booking", []string{"reference"}, noop,
		map[string]string{"reference": "ABC123"}, "OK"))

	cmds := r.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "book_table", cmds[0].Name)
	assert.Equal(t, "cancel_booking", cmds[1].Name)
	assert.Equal(t, "book_table(full_name, num_people, time)", cmds[0].Signature())
	assert.Equal(t,
		`{"command": "book_table", "params": {"full_name": "Jane Doe", "num_people": "2", "time": "2023-06-01 19:00:00"}}`,
		cmds[0].ExampleJSON())
	assert.True(t, strings.HasPrefix(cmds[1].ExampleJSON(), `{"command": "cancel_booking"`))

	_, ok := r.Lookup("cancel_booking")
	assert.True(t, ok)
	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}
