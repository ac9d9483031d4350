package shader

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/message"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DefaultVersion is the directive prepended to every stage source unless WithVersion overrides it.
const DefaultVersion = "#version 410 core"

var (
	// ErrNoShaders is returned by Load when no stage was attached.
	ErrNoShaders = errors.New("no shader stage attached")

	// ErrAlreadyLoaded is returned by Load on a program that already loaded.
	ErrAlreadyLoaded = errors.New("program already loaded")

	// ErrCompile is returned by Load when a stage fails to expand or compile.
	ErrCompile = errors.New("shader compilation failed")

	// ErrLink is returned by Load when the program fails to link.
	ErrLink = errors.New("program link failed")
)

// stageOrder is the order stages are compiled and attached in.
var stageOrder = []gpu.ShaderStage{gpu.ShaderStageVertex, gpu.ShaderStageGeometry, gpu.ShaderStagePixel}

// infoLogLine pulls the first line number out of a compiler log. Drivers format it as "0:12(3)",
// "0(12)" or "ERROR: 0:12:".
var infoLogLine = regexp.MustCompile(`\d+[:(](\d+)`)

type define struct {
	name  string
	value string
}

// program is the implementation of the Program interface.
type program struct {
	ctx      *gpu.Context
	reader   FileReader
	version  string
	poster   message.Poster
	label    string
	expander Expander

	infos   []ShaderInfo
	defines map[gpu.ShaderStage][]define

	handle gpu.Handle
	loaded bool

	indices        map[string]int32
	unused         map[string]struct{}
	techniqueIndex int32
	techniqueKnown bool
}

// Program is a GPU shader program assembled from attached stage sources. Stages, aliases and
// defines are collected until Load compiles and links everything exactly once. After Load the
// program only resolves uniforms and uploads values; uploads require the program to be current on
// its context.
type Program interface {
	// AttachShader records a stage source. No validation happens until Load. After Load this is a
	// no-op that logs a warning.
	//
	// Parameters:
	//   - info: the stage source to attach
	AttachShader(info ShaderInfo)

	// SetAlias records ${name} -> text for every source expanded by Load. Ignored after Load.
	//
	// Parameters:
	//   - name: the alias name without the ${} wrapper
	//   - text: the replacement text
	SetAlias(name, text string)

	// SetDefine adds "#define name value" to the preamble of one stage. A second call with the same
	// name replaces the value. Ignored after Load.
	//
	// Parameters:
	//   - stage: the stage the define applies to
	//   - name: the macro name
	//   - value: the macro body, may be empty
	SetDefine(stage gpu.ShaderStage, name, value string)

	// Load expands, compiles and links all attached stages. On compile or link failure the offending
	// source is logged with line numbers and origins, a CrashDown message is posted and every
	// native object created so far is deleted.
	//
	// Returns:
	//   - error: ErrNoShaders, ErrAlreadyLoaded, or a wrapped ErrCompile / ErrLink
	Load() error

	// Loaded reports whether Load succeeded.
	Loaded() bool

	// Release deletes the native program. The program must not be used afterwards.
	Release()

	// Use makes the program current on its context. Redundant binds are skipped.
	Use()

	// Handle returns the native program, zero before a successful Load.
	Handle() gpu.Handle

	// Verify reports whether the program is the one currently bound on its context.
	Verify() bool

	// Label returns the name used in log entries.
	Label() string

	// Index resolves a uniform name to its location. Unresolved names return -1 and are logged once
	// per name.
	//
	// Parameters:
	//   - name: the uniform name, e.g. "OXY_speculars[2].lightColor"
	//
	// Returns:
	//   - int32: the location, or -1
	Index(name string) int32

	// SetMatrix4At uploads a 4x4 matrix to a location. Locations of -1 are skipped.
	SetMatrix4At(index int32, m mgl32.Mat4)
	// SetVec4At uploads a vec4 to a location.
	SetVec4At(index int32, v mgl32.Vec4)
	// SetVec3At uploads a vec3 to a location.
	SetVec3At(index int32, v mgl32.Vec3)
	// SetIntAt uploads an int to a location.
	SetIntAt(index int32, v int32)
	// SetFloatAt uploads a float to a location.
	SetFloatAt(index int32, v float32)
	// SetBoolAt uploads a bool, as an int, to a location.
	SetBoolAt(index int32, v bool)

	// SetMatrix4 uploads a 4x4 matrix to the named uniform.
	SetMatrix4(name string, m mgl32.Mat4)
	// SetVec4 uploads a vec4 to the named uniform.
	SetVec4(name string, v mgl32.Vec4)
	// SetVec3 uploads a vec3 to the named uniform.
	SetVec3(name string, v mgl32.Vec3)
	// SetInt uploads an int to the named uniform.
	SetInt(name string, v int32)
	// SetFloat uploads a float to the named uniform.
	SetFloat(name string, v float32)
	// SetBool uploads a bool, as an int, to the named uniform.
	SetBool(name string, v bool)

	// SetInterfaceInstance selects a technique: it writes the ID of instanceName (see TechniqueID)
	// to the selector uniform interfaceName. The selector location is resolved once per program.
	// An unknown instance asserts and selects Model2D.
	//
	// Parameters:
	//   - interfaceName: the selector uniform, normally TechniqueUniform
	//   - instanceName: a technique or filter name, e.g. "OXY_Model3D"
	//   - stage: the stage the selector belongs to
	//
	// Returns:
	//   - bool: true once the selector was written
	SetInterfaceInstance(interfaceName, instanceName string, stage gpu.ShaderStage) bool
}

var _ Program = &program{}

// NewProgram creates an empty program bound to a render context.
//
// Parameters:
//   - ctx: the render context that tracks the current program
//   - options: functional options (reader, version directive, message queue, label)
//
// Returns:
//   - Program: the new program
func NewProgram(ctx *gpu.Context, options ...ProgramBuilderOption) Program {
	p := &program{
		ctx:     ctx,
		version: DefaultVersion,
		label:   "program",
		defines: make(map[gpu.ShaderStage][]define),
		indices: make(map[string]int32),
		unused:  make(map[string]struct{}),
	}
	for _, opt := range options {
		opt(p)
	}
	p.expander = NewExpander(p.reader)
	return p
}

func (p *program) AttachShader(info ShaderInfo) {
	if p.loaded {
		common.Log().Warn("shader attached after load, ignoring",
			zap.String("program", p.label), zap.String("file", info.Path))
		return
	}
	p.infos = append(p.infos, info)
}

func (p *program) SetAlias(name, text string) {
	if p.loaded {
		common.Log().Warn("alias set after load, ignoring", zap.String("program", p.label), zap.String("alias", name))
		return
	}
	p.expander.SetAlias(name, text)
}

func (p *program) SetDefine(stage gpu.ShaderStage, name, value string) {
	if p.loaded {
		common.Log().Warn("define set after load, ignoring", zap.String("program", p.label), zap.String("define", name))
		return
	}
	defs := p.defines[stage]
	for i := range defs {
		if defs[i].name == name {
			defs[i].value = value
			return
		}
	}
	p.defines[stage] = append(defs, define{name: name, value: value})
}

func (p *program) Load() error {
	if p.loaded {
		return fmt.Errorf("%s: %w", p.label, ErrAlreadyLoaded)
	}
	if len(p.infos) == 0 {
		return fmt.Errorf("%s: %w", p.label, ErrNoShaders)
	}

	d := p.ctx.Device()
	handle := d.CreateProgram()
	var shaders []gpu.Handle
	discard := func() {
		for _, s := range shaders {
			d.DeleteShader(s)
		}
		p.ctx.Forget(handle)
		d.DeleteProgram(handle)
	}

	for _, stage := range stageOrder {
		infos := p.stageInfos(stage)
		if len(infos) == 0 {
			continue
		}

		src, sm := p.compose(stage, infos)
		s := d.CreateShader(stage, src)
		shaders = append(shaders, s)
		if ok, log := d.CompileShader(s); !ok {
			p.reportCompile(stage, src, sm, log, infos)
			discard()
			return fmt.Errorf("%s %s stage: %w", p.label, stage, ErrCompile)
		}
		d.AttachShader(handle, s)
	}

	if ok, log := d.LinkProgram(handle); !ok {
		p.crash("program link failed", zap.String("log", strings.TrimSpace(log)))
		discard()
		return fmt.Errorf("%s: %w", p.label, ErrLink)
	}

	for _, s := range shaders {
		d.DeleteShader(s)
	}
	p.handle = handle
	p.loaded = true
	return nil
}

// stageInfos returns the attached infos of one stage in attach order.
func (p *program) stageInfos(stage gpu.ShaderStage) []ShaderInfo {
	var out []ShaderInfo
	for _, info := range p.infos {
		if info.Stage == stage {
			out = append(out, info)
		}
	}
	return out
}

// compose builds the full source of a stage: the version directive, the stage defines and the
// expansion of every attached source, one after the other.
func (p *program) compose(stage gpu.ShaderStage, infos []ShaderInfo) (string, SourceMap) {
	parts := []string{p.version}
	sm := SourceMap{{File: generatedFile, Line: 1}}
	for _, def := range p.defines[stage] {
		parts = append(parts, strings.TrimRight("#define "+def.name+" "+def.value, " "))
		sm = append(sm, SourceLocation{File: generatedFile, Line: len(sm) + 1})
	}

	for _, info := range infos {
		exp := p.expander.Expand(info.Path, info.Source)
		parts = append(parts, exp.Source)
		sm = append(sm, exp.SourceMap...)
	}
	return strings.Join(parts, "\n"), sm
}

// reportCompile logs a failed stage with numbered source and the origin of the reported line,
// then signals the crash.
func (p *program) reportCompile(stage gpu.ShaderStage, src string, sm SourceMap, log string, infos []ShaderInfo) {
	lines := strings.Split(src, "\n")
	var numbered strings.Builder
	for i, line := range lines {
		numbered.WriteString(strconv.Itoa(i + 1))
		numbered.WriteString(":\t")
		numbered.WriteString(line)
		numbered.WriteByte('\n')
	}

	files := make([]string, 0, len(infos))
	for _, info := range infos {
		files = append(files, cmp.Or(info.Path, "<inline>"))
	}

	fields := []zap.Field{
		zap.Stringer("stage", stage),
		zap.Strings("files", files),
		zap.String("log", strings.TrimSpace(log)),
		zap.String("source", numbered.String()),
	}
	if m := infoLogLine.FindStringSubmatch(log); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			if loc, ok := sm.Locate(n); ok {
				fields = append(fields, zap.Stringer("origin", loc))
			}
		}
	}
	p.crash("shader compilation failed", fields...)
}

// crash logs a fatal shader failure, asserts and posts CrashDown.
func (p *program) crash(msg string, fields ...zap.Field) {
	fields = append([]zap.Field{zap.String("program", p.label)}, fields...)
	common.Log().Error(msg, fields...)
	common.DebugPanic(p.label + ": " + msg)
	if p.poster != nil {
		p.poster.Post(message.CrashDown(p.label + ": " + msg))
	}
}

func (p *program) Loaded() bool {
	return p.loaded
}

func (p *program) Release() {
	if p.handle == 0 {
		return
	}
	p.ctx.Forget(p.handle)
	p.ctx.Device().DeleteProgram(p.handle)
	p.handle = 0
	p.loaded = false
	clear(p.indices)
	clear(p.unused)
	p.techniqueKnown = false
}

func (p *program) Use() {
	if !p.loaded {
		common.Assert(false, "use of a program that is not loaded", zap.String("program", p.label))
		return
	}
	p.ctx.UseProgram(p.handle)
}

func (p *program) Handle() gpu.Handle {
	return p.handle
}

func (p *program) Verify() bool {
	return p.ctx.IsCurrent(p.handle)
}

func (p *program) Label() string {
	return p.label
}

func (p *program) Index(name string) int32 {
	if loc, ok := p.indices[name]; ok {
		return loc
	}
	if !p.loaded {
		return -1
	}

	loc := p.ctx.Device().UniformLocation(p.handle, name)
	p.indices[name] = loc
	if loc < 0 {
		if _, seen := p.unused[name]; !seen {
			p.unused[name] = struct{}{}
			common.Log().Warn("uniform not found in program", zap.String("program", p.label), zap.String("uniform", name))
		}
	}
	return loc
}

// ready asserts that the program is current and reports whether an upload to index may proceed.
func (p *program) ready(index int32) bool {
	if !p.Verify() {
		common.Assert(false, "uniform set on a program that is not current", zap.String("program", p.label))
		return false
	}
	return index >= 0
}

func (p *program) SetMatrix4At(index int32, m mgl32.Mat4) {
	if p.ready(index) {
		p.ctx.Device().UniformMatrix4f(index, m)
	}
}

func (p *program) SetVec4At(index int32, v mgl32.Vec4) {
	if p.ready(index) {
		p.ctx.Device().Uniform4f(index, v)
	}
}

func (p *program) SetVec3At(index int32, v mgl32.Vec3) {
	if p.ready(index) {
		p.ctx.Device().Uniform3f(index, v)
	}
}

func (p *program) SetIntAt(index int32, v int32) {
	if p.ready(index) {
		p.ctx.Device().Uniform1i(index, v)
	}
}

func (p *program) SetFloatAt(index int32, v float32) {
	if p.ready(index) {
		p.ctx.Device().Uniform1f(index, v)
	}
}

func (p *program) SetBoolAt(index int32, v bool) {
	var i int32
	if v {
		i = 1
	}
	p.SetIntAt(index, i)
}

func (p *program) SetMatrix4(name string, m mgl32.Mat4) {
	p.SetMatrix4At(p.Index(name), m)
}

func (p *program) SetVec4(name string, v mgl32.Vec4) {
	p.SetVec4At(p.Index(name), v)
}

func (p *program) SetVec3(name string, v mgl32.Vec3) {
	p.SetVec3At(p.Index(name), v)
}

func (p *program) SetInt(name string, v int32) {
	p.SetIntAt(p.Index(name), v)
}

func (p *program) SetFloat(name string, v float32) {
	p.SetFloatAt(p.Index(name), v)
}

func (p *program) SetBool(name string, v bool) {
	p.SetBoolAt(p.Index(name), v)
}

func (p *program) SetInterfaceInstance(interfaceName, instanceName string, stage gpu.ShaderStage) bool {
	common.Assert(p.Verify(), "technique set on a program that is not current", zap.String("program", p.label))
	if !p.techniqueKnown {
		p.techniqueIndex = p.Index(interfaceName)
		p.techniqueKnown = true
	}

	id, ok := TechniqueID(instanceName)
	if !ok {
		common.Assert(false, "unknown technique instance",
			zap.String("program", p.label), zap.String("instance", instanceName), zap.Stringer("stage", stage))
		id = int32(TechniqueModel2D)
	}
	p.SetIntAt(p.techniqueIndex, id)
	return true
}
