package robotstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaxy55/unitree_sdk2_go/client"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

type fakeCaller struct {
	registered []int32
	api        int32
	param      string
	data       string
	err        error
}

func (f *fakeCaller) RegisterAPI(id int32, _ client.Idempotence) {
	f.registered = append(f.registered, id)
}

func (f *fakeCaller) Call(_ context.Context, id int32, param string) (string, error) {
	f.api, f.param = id, param
	return f.data, f.err
}

func TestServiceList(t *testing.T) {
	f := &fakeCaller{data: `[
		{"name":"sport_mode","status":1,"protect":1},
		{"name":"obstacles_avoid","status":0,"protect":false}
	]`}
	c := NewWithCaller(f)
	assert.ElementsMatch(t, []int32{1, 2, 3}, f.registered)

	list, err := c.ServiceList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.api)
	assert.Equal(t, "{}", f.param)
	assert.Equal(t, []ServiceState{
		{Name: "sport_mode", Status: Running, Protect: true},
		{Name: "obstacles_avoid", Status: Stopped},
	}, list)
	assert.Equal(t, "running", list[0].Status.String())
}

func TestServiceListMalformed(t *testing.T) {
	for _, data := range []string{``, `{}`, `[{"name":1}]`, `[{"name":"x","protect":"yes"}]`} {
		c := NewWithCaller(&fakeCaller{data: data})
		_, err := c.ServiceList(context.Background())
		assert.Equal(t, sdkerr.CodeSerialization, sdkerr.Code(err), data)
	}
}

func TestServiceSwitch(t *testing.T) {
	f := &fakeCaller{data: `{"name":"obstacles_avoid","status":1}`}
	status, err := NewWithCaller(f).ServiceSwitch(context.Background(), "obstacles_avoid", true)
	require.NoError(t, err)
	assert.Equal(t, Running, status)
	assert.Equal(t, int32(2), f.api)
	assert.JSONEq(t, `{"name":"obstacles_avoid","switch":1}`, f.param)

	f.data = `{"name":"obstacles_avoid","status":0}`
	status, err = NewWithCaller(f).ServiceSwitch(context.Background(), "obstacles_avoid", false)
	require.NoError(t, err)
	assert.Equal(t, Stopped, status)
	assert.JSONEq(t, `{"name":"obstacles_avoid","switch":0}`, f.param)
}

func TestServiceSwitchError(t *testing.T) {
	f := &fakeCaller{err: sdkerr.API(5201)}
	_, err := NewWithCaller(f).ServiceSwitch(context.Background(), "sport_mode", false)
	assert.Equal(t, int32(5201), sdkerr.Code(err))
}

func TestSetReportFreq(t *testing.T) {
	f := &fakeCaller{}
	require.NoError(t, NewWithCaller(f).SetReportFreq(context.Background(), 100, 5000))
	assert.Equal(t, int32(3), f.api)
	assert.JSONEq(t, `{"interval":100,"duration":5000}`, f.param)
}
