// shader_parser_test.go - Shader bytecode loader tests

package main

import (
	"errors"
	"testing"
)

func TestParseCopyInstructions(t *testing.T) {
	code := []byte{
		SOP_VECTOR_COPY, 2, 0, 3, 0, // out_v0 <- const_v0
		SOP_SCALAR_COPY, 2, 0, 3, 0, // out_s0 <- const_s0
	}
	var module ShaderModule
	if err := ParseShaderBytecode(SHADER_VERTEX, code, &module); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if module.Count != 2 || module.Type != SHADER_VERTEX {
		t.Fatalf("expected 2 instructions, got %d", module.Count)
	}
	inst := module.Instructions[0]
	if inst.Op != OP_COPY_VECTOR || inst.Dst != (RegAddr{REG_OUTPUT, 0}) ||
		inst.SrcA != (RegAddr{REG_CONSTANT, 0}) {
		t.Errorf("instruction 0 wrong: %+v", inst)
	}
}

func TestParseCompareAndArithmetic(t *testing.T) {
	code := []byte{
		SOP_COMPARE_SCALAR_F32, 0, 1, 1, 2, 3, 3, 0x02, // local1 = (in2 > const3)
		SOP_SCALAR_SUB_F32, 0, 0, 1, 1, 3, 2, // local0 = in1 - const2
		SOP_VECTOR_CW_ADD_I32, 2, 4, 1, 5, 0, 6,
	}
	var module ShaderModule
	if err := ParseShaderBytecode(SHADER_FRAGMENT, code, &module); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if module.Count != 3 {
		t.Fatalf("expected 3 instructions, got %d", module.Count)
	}
	if module.Instructions[0].Binary != BINARY_COMPARE_F32 ||
		module.Instructions[0].Cmp != CMP_GREATER_THAN {
		t.Errorf("compare wrong: %+v", module.Instructions[0])
	}
	if module.Instructions[1].Binary != BINARY_SUB_F32 {
		t.Errorf("sub wrong: %+v", module.Instructions[1])
	}
	if module.Instructions[2].Op != OP_VECTOR_BINARY ||
		module.Instructions[2].Binary != BINARY_ADD_I32 {
		t.Errorf("vector add wrong: %+v", module.Instructions[2])
	}
}

func TestParseMatrixMultiply(t *testing.T) {
	code := []byte{
		SOP_MATRIX_MULTIPLY_M44_V4,
		2, 0, // dest out_v0
		3, 0, 3, 1, 3, 2, 3, 3, // rows const_v0..3
		1, 0, // x in_v0
	}
	var module ShaderModule
	if err := ParseShaderBytecode(SHADER_VERTEX, code, &module); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	inst := module.Instructions[0]
	if inst.Op != OP_MATRIX_MULTIPLY_M44_V4 || inst.MatRows[3] != (RegAddr{REG_CONSTANT, 3}) ||
		inst.SrcA != (RegAddr{REG_INPUT, 0}) {
		t.Errorf("matrix instruction wrong: %+v", inst)
	}
}

func TestParseErrors(t *testing.T) {
	var module ShaderModule

	if err := ParseShaderBytecode(SHADER_VERTEX, []byte{SOP_VECTOR_COPY, 2}, &module); err != ErrUnexpectedEndOfCode {
		t.Errorf("expected ErrUnexpectedEndOfCode, got %v", err)
	}
	if err := ParseShaderBytecode(SHADER_VERTEX, []byte{0x7F}, &module); err != ErrUnknownOpcode {
		t.Errorf("expected ErrUnknownOpcode, got %v", err)
	}
	if err := ParseShaderBytecode(SHADER_VERTEX, []byte{
		SOP_COMPARE_SCALAR_F32, 0, 0, 0, 1, 0, 2, 0x09,
	}, &module); err != ErrInvalidComparison {
		t.Errorf("expected ErrInvalidComparison, got %v", err)
	}

	err := ParseShaderBytecode(SHADER_VERTEX, []byte{SOP_SCALAR_COPY, 9, 0, 0, 0}, &module)
	var regErr *InvalidRegisterAddressError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected InvalidRegisterAddressError, got %v", err)
	}
	if regErr.Offset != 1 {
		t.Errorf("expected offset 1, got %d", regErr.Offset)
	}
}

func TestParseShaderTooLong(t *testing.T) {
	code := make([]byte, 0, (SHADER_MAX_INSTRUCTIONS+1)*5)
	for i := 0; i <= SHADER_MAX_INSTRUCTIONS; i++ {
		code = append(code, SOP_SCALAR_COPY, 2, 0, 3, 0)
	}
	var module ShaderModule
	if err := ParseShaderBytecode(SHADER_VERTEX, code, &module); err != ErrShaderTooLong {
		t.Errorf("expected ErrShaderTooLong, got %v", err)
	}
}

func TestParseErrorKeepsPreviousContents(t *testing.T) {
	var module ShaderModule
	good := []byte{SOP_SCALAR_COPY, 2, 7, 3, 1}
	if err := ParseShaderBytecode(SHADER_FRAGMENT, good, &module); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	bad := []byte{0x7F}
	if err := ParseShaderBytecode(SHADER_VERTEX, bad, &module); err == nil {
		t.Fatal("expected parse failure")
	}
	if module.Count != 1 || module.Type != SHADER_FRAGMENT ||
		module.Instructions[0].Dst != (RegAddr{REG_OUTPUT, 7}) {
		t.Error("failed parse must leave previous module intact")
	}
}
