package host

import (
	"context"
	"encoding/json"

	"github.com/caffeineduck/ssrsandbox/ops"
	v8 "rogchap.com/v8go"
)

// ctxHolder carries the Go context.Context for the render currently in
// flight, so a synchronous op call can honor its deadline (e.g. fetch's
// http.Client.Do). Renders are strictly serial, so one pointer suffices
// -- the same simplification ops.Current makes for the console buffer.
type ctxHolder struct {
	ctx context.Context
}

// bindHost installs a single "__host" global object exposing one
// method, call(op, argsJSON) -> resultJSON, which dispatches into reg.
// Grounded on the teacher's hostfunc.Func JSON-in/JSON-out shape and on
// couchbase-sync_gateway's js/v8_runner.go NewJSONString/JSONParse
// round trip, collapsed from a stdio pipe to a direct in-process call
// since v8go runs in the same OS process as the host.
func bindHost(iso *v8.Isolate, ctx *v8.Context, reg *ops.Registry, holder *ctxHolder) error {
	global := ctx.Global()

	hostTmpl := v8.NewObjectTemplate(iso)
	callTmpl := v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		return dispatch(iso, reg, holder, info)
	})
	if err := hostTmpl.Set("call", callTmpl); err != nil {
		return err
	}

	hostObj, err := hostTmpl.NewInstance(ctx)
	if err != nil {
		return err
	}
	return global.Set("__host", hostObj)
}

func dispatch(iso *v8.Isolate, reg *ops.Registry, holder *ctxHolder, info *v8.FunctionCallbackInfo) *v8.Value {
	args := info.Args()
	if len(args) < 2 {
		return throwString(iso, "__host.call requires (op, argsJSON)")
	}
	opName := args[0].String()
	argsJSON := args[1].String()

	fn, ok := reg.Get(opName)
	if !ok {
		return throwString(iso, "unknown op: "+opName)
	}

	var parsed map[string]any
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &parsed); err != nil {
			return throwString(iso, "invalid op arguments: "+err.Error())
		}
	}
	if parsed == nil {
		parsed = map[string]any{}
	}

	renderCtx := context.Background()
	if holder != nil && holder.ctx != nil {
		renderCtx = holder.ctx
	}

	result, err := fn(renderCtx, parsed)
	if err != nil {
		return throwString(iso, err.Error())
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return throwString(iso, "could not marshal op result: "+err.Error())
	}

	val, err := v8.NewValue(iso, string(resultJSON))
	if err != nil {
		return throwString(iso, "could not return op result: "+err.Error())
	}
	return val
}

func throwString(iso *v8.Isolate, msg string) *v8.Value {
	val, err := v8.NewValue(iso, msg)
	if err != nil {
		return iso.ThrowException(v8.Undefined(iso))
	}
	return iso.ThrowException(val)
}
