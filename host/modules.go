package host

import (
	"fmt"

	"github.com/caffeineduck/ssrsandbox/loader"
	"github.com/caffeineduck/ssrsandbox/resolver"
	v8 "rogchap.com/v8go"
)

// moduleSystem executes the confined module graph: every specifier, an
// entry's top-level import or a nested static/dynamic one, is resolved
// on each require, and a module that evaluates successfully is loaded
// once per runtime and memoized by canonical id. A module whose load or
// evaluation fails is not cached and is attempted again on its next
// require.
//
// __require is bound once per runtime as a native function value, held
// only by moduleSystem and passed explicitly into each module's wrapper
// function -- it is never installed on globalThis, so user code cannot
// override resolution by shadowing a global, unlike the one named host
// namespace object spec.md requires deleted after bootstrap.
type moduleSystem struct {
	iso        *v8.Isolate
	ctx        *v8.Context
	resolver   *resolver.Resolver
	loader     *loader.Loader
	cache      map[string]*v8.Value
	requireFn  *v8.Function
	dynImport  *v8.Function
	referrers  []string
}

func newModuleSystem(iso *v8.Isolate, ctx *v8.Context, res *resolver.Resolver, ld *loader.Loader) (*moduleSystem, error) {
	ms := &moduleSystem{
		iso:      iso,
		ctx:      ctx,
		resolver: res,
		loader:   ld,
		cache:    make(map[string]*v8.Value),
	}

	tmpl := v8.NewFunctionTemplate(iso, ms.nativeRequire)
	ms.requireFn = tmpl.GetFunction(ctx)

	wrapperVal, err := ctx.RunScript(
		`(function(__require){ return function(spec){ try { return Promise.resolve(__require(spec)); } catch (e) { return Promise.reject(e); } }; })`,
		"dynimport-wrapper.js",
	)
	if err != nil {
		return nil, err
	}
	wrapperFn, err := wrapperVal.AsFunction()
	if err != nil {
		return nil, err
	}
	dynVal, err := wrapperFn.Call(v8.Undefined(iso), ms.requireFn)
	if err != nil {
		return nil, err
	}
	ms.dynImport, err = dynVal.AsFunction()
	if err != nil {
		return nil, err
	}

	return ms, nil
}

// load resolves specifier against referrer (top-level specifiers pass
// "" and are resolved against the Resolver's root), then loads,
// transforms, and evaluates the module if it has not run yet, and
// returns its exports object.
func (ms *moduleSystem) load(specifier, referrer string) (*v8.Value, error) {
	id, err := ms.resolver.Resolve(specifier, referrer)
	if err != nil {
		return nil, err
	}

	if exports, ok := ms.cache[id]; ok {
		return exports, nil
	}

	src, err := ms.loader.Load(id)
	if err != nil {
		return nil, err
	}

	body, exportNames := transformESM(string(src))

	var assigns string
	for _, name := range exportNames {
		assigns += fmt.Sprintf("module.exports.%s = %s;\n", name, name)
	}

	wrapperSrc := "(function(module, exports, __require, __dynImport){\n" +
		body + "\n" + assigns + "\nreturn module.exports;\n})"

	unbound, err := ms.iso.CompileUnboundScript(wrapperSrc, id, v8.CompileOptions{})
	if err != nil {
		return nil, err
	}
	wrapperVal, err := unbound.Run(ms.ctx)
	if err != nil {
		return nil, err
	}
	wrapperFn, err := wrapperVal.AsFunction()
	if err != nil {
		return nil, err
	}

	moduleObjTmpl := v8.NewObjectTemplate(ms.iso)
	moduleObj, err := moduleObjTmpl.NewInstance(ms.ctx)
	if err != nil {
		return nil, err
	}
	exportsObjTmpl := v8.NewObjectTemplate(ms.iso)
	exportsObj, err := exportsObjTmpl.NewInstance(ms.ctx)
	if err != nil {
		return nil, err
	}
	if err := moduleObj.Set("exports", exportsObj); err != nil {
		return nil, err
	}

	ms.referrers = append(ms.referrers, id)
	defer func() { ms.referrers = ms.referrers[:len(ms.referrers)-1] }()

	result, err := wrapperFn.Call(v8.Undefined(ms.iso), moduleObj, exportsObj, ms.requireFn, ms.dynImport)
	if err != nil {
		return nil, err
	}

	ms.cache[id] = result
	return result, nil
}

// currentReferrer returns the id of the module currently being loaded,
// or "" at the top level.
func (ms *moduleSystem) currentReferrer() string {
	if len(ms.referrers) == 0 {
		return ""
	}
	return ms.referrers[len(ms.referrers)-1]
}

// nativeRequire backs the synchronous __require(spec) call injected
// into every module's wrapper function.
func (ms *moduleSystem) nativeRequire(info *v8.FunctionCallbackInfo) *v8.Value {
	args := info.Args()
	if len(args) == 0 {
		return ms.throw("specifier required")
	}
	spec := args[0].String()

	exports, err := ms.load(spec, ms.currentReferrer())
	if err != nil {
		return ms.throw(err.Error())
	}
	return exports
}

func (ms *moduleSystem) throw(msg string) *v8.Value {
	val, verr := v8.NewValue(ms.iso, msg)
	if verr != nil {
		return ms.iso.ThrowException(v8.Undefined(ms.iso))
	}
	return ms.iso.ThrowException(val)
}
