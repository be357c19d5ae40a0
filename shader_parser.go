// shader_parser.go - Shader bytecode loader

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

Bytecode is an opcode byte followed by typed operands. A register operand
is two bytes: bank (0 local, 1 input, 2 output, 3 constant) and index. On
any parse error the destination module keeps its previous contents.
*/

package main

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedEndOfCode = errors.New("shader: unexpected end of code")
	ErrUnknownOpcode       = errors.New("shader: unknown opcode")
	ErrShaderTooLong       = errors.New("shader: too long")
	ErrInvalidComparison   = errors.New("shader: invalid comparison")
)

// InvalidRegisterAddressError reports the byte offset of a bad register
// operand.
type InvalidRegisterAddressError struct {
	Offset int
}

func (e *InvalidRegisterAddressError) Error() string {
	return fmt.Sprintf("shader: invalid register address at offset %d", e.Offset)
}

// Bytecode opcodes.
const (
	SOP_VECTOR_PUSH                          = 0x00
	SOP_SCALAR_PUSH                          = 0x01
	SOP_VECTOR_POP                           = 0x02
	SOP_SCALAR_POP                           = 0x03
	SOP_VECTOR_COPY                          = 0x04
	SOP_SCALAR_COPY                          = 0x05
	SOP_VECTOR_COMPONENT_TO_SCALAR_COPY      = 0x06
	SOP_SCALAR_TO_VECTOR_COMPONENT_COPY      = 0x07
	SOP_COND_VECTOR_COPY                     = 0x08
	SOP_COND_SCALAR_COPY                     = 0x09
	SOP_COND_VECTOR_COMPONENT_TO_SCALAR_COPY = 0x0A
	SOP_COND_SCALAR_TO_VECTOR_COMPONENT_COPY = 0x0B
	SOP_COMPARE_SCALAR_F32                   = 0x0C
	SOP_COMPARE_VECTOR_F32                   = 0x0D
	SOP_COMPARE_SCALAR_I32                   = 0x0E
	SOP_COMPARE_VECTOR_I32                   = 0x0F
	SOP_COMPARE_SCALAR_U32                   = 0x10
	SOP_COMPARE_VECTOR_U32                   = 0x11
	SOP_MATRIX_MULTIPLY_M44_V4               = 0x12
	SOP_SCALAR_ADD_F32                       = 0x13
	SOP_SCALAR_SUB_F32                       = 0x14
	SOP_SCALAR_MUL_F32                       = 0x15
	SOP_SCALAR_DIV_F32                       = 0x16
	SOP_SCALAR_MOD_F32                       = 0x17
	SOP_SCALAR_ADD_I32                       = 0x18
	SOP_SCALAR_SUB_I32                       = 0x19
	SOP_SCALAR_MUL_I32                       = 0x1A
	SOP_SCALAR_DIV_I32                       = 0x1B
	SOP_SCALAR_MOD_I32                       = 0x1C
	SOP_VECTOR_CW_ADD_F32                    = 0x1D
	SOP_VECTOR_CW_SUB_F32                    = 0x1E
	SOP_VECTOR_CW_MUL_F32                    = 0x1F
	SOP_VECTOR_CW_DIV_F32                    = 0x20
	SOP_VECTOR_CW_MOD_F32                    = 0x21
	SOP_VECTOR_CW_ADD_I32                    = 0x22
	SOP_VECTOR_CW_SUB_I32                    = 0x23
	SOP_VECTOR_CW_MUL_I32                    = 0x24
	SOP_VECTOR_CW_DIV_I32                    = 0x25
	SOP_VECTOR_CW_MOD_I32                    = 0x26
	// 0x27 and above are reserved.
)

type shaderReader struct {
	code []byte
	pos  int
}

func (r *shaderReader) byte() (uint8, error) {
	if r.pos >= len(r.code) {
		return 0, ErrUnexpectedEndOfCode
	}
	b := r.code[r.pos]
	r.pos++
	return b, nil
}

func (r *shaderReader) register() (RegAddr, error) {
	offset := r.pos
	bank, err := r.byte()
	if err != nil {
		return RegAddr{}, err
	}
	index, err := r.byte()
	if err != nil {
		return RegAddr{}, err
	}
	if bank > uint8(REG_CONSTANT) {
		return RegAddr{}, &InvalidRegisterAddressError{Offset: offset}
	}
	return RegAddr{Bank: RegBank(bank), Index: index}, nil
}

func (r *shaderReader) channel() (uint8, error) {
	offset := r.pos
	c, err := r.byte()
	if err != nil {
		return 0, err
	}
	if c > CHANNEL_W {
		return 0, &InvalidRegisterAddressError{Offset: offset}
	}
	return c, nil
}

func (r *shaderReader) comparison() (uint8, error) {
	c, err := r.byte()
	if err != nil {
		return 0, err
	}
	if c >= numComparisons {
		return 0, ErrInvalidComparison
	}
	return c, nil
}

// ParseShaderBytecode decodes code into module. The module is replaced only
// on success.
func ParseShaderBytecode(shaderType ShaderType, code []byte, module *ShaderModule) error {
	var scratch ShaderModule
	r := &shaderReader{code: code}
	count := 0
	for r.pos < len(r.code) {
		if count >= SHADER_MAX_INSTRUCTIONS {
			return ErrShaderTooLong
		}
		opcode, _ := r.byte()
		inst, err := parseInstruction(opcode, r)
		if err != nil {
			return err
		}
		scratch.Instructions[count] = inst
		count++
	}
	scratch.Count = count
	scratch.Type = shaderType
	*module = scratch
	return nil
}

func parseInstruction(opcode uint8, r *shaderReader) (ShaderInstruction, error) {
	var inst ShaderInstruction
	var err error
	switch opcode {
	case SOP_VECTOR_PUSH:
		inst.Op = OP_PUSH_VECTOR
		inst.SrcA, err = r.register()
	case SOP_SCALAR_PUSH:
		inst.Op = OP_PUSH_SCALAR
		inst.SrcA, err = r.register()
	case SOP_VECTOR_POP:
		inst.Op = OP_POP_VECTOR
		inst.Dst, err = r.register()
	case SOP_SCALAR_POP:
		inst.Op = OP_POP_SCALAR
		inst.Dst, err = r.register()

	case SOP_VECTOR_COPY, SOP_SCALAR_COPY:
		if opcode == SOP_VECTOR_COPY {
			inst.Op = OP_COPY_VECTOR
		} else {
			inst.Op = OP_COPY_SCALAR
		}
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		inst.SrcA, err = r.register()

	case SOP_COND_VECTOR_COPY, SOP_COND_SCALAR_COPY:
		if opcode == SOP_COND_VECTOR_COPY {
			inst.Op = OP_COND_COPY_VECTOR
		} else {
			inst.Op = OP_COND_COPY_SCALAR
		}
		if inst.Cond, err = r.register(); err != nil {
			return inst, err
		}
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		inst.SrcA, err = r.register()

	case SOP_VECTOR_COMPONENT_TO_SCALAR_COPY:
		inst.Op = OP_COPY_VECTOR_COMPONENT_TO_SCALAR
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		if inst.SrcA, err = r.register(); err != nil {
			return inst, err
		}
		inst.Channel, err = r.channel()

	case SOP_SCALAR_TO_VECTOR_COMPONENT_COPY:
		inst.Op = OP_COPY_SCALAR_TO_VECTOR_COMPONENT
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		if inst.Channel, err = r.channel(); err != nil {
			return inst, err
		}
		inst.SrcA, err = r.register()

	case SOP_COND_VECTOR_COMPONENT_TO_SCALAR_COPY:
		inst.Op = OP_COND_COPY_VECTOR_COMPONENT_TO_SCALAR
		if inst.Cond, err = r.register(); err != nil {
			return inst, err
		}
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		if inst.SrcA, err = r.register(); err != nil {
			return inst, err
		}
		inst.Channel, err = r.channel()

	case SOP_COND_SCALAR_TO_VECTOR_COMPONENT_COPY:
		inst.Op = OP_COND_COPY_SCALAR_TO_VECTOR_COMPONENT
		if inst.Cond, err = r.register(); err != nil {
			return inst, err
		}
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		if inst.Channel, err = r.channel(); err != nil {
			return inst, err
		}
		inst.SrcA, err = r.register()

	case SOP_COMPARE_SCALAR_F32, SOP_COMPARE_SCALAR_I32, SOP_COMPARE_SCALAR_U32:
		inst.Op = OP_SCALAR_BINARY
		switch opcode {
		case SOP_COMPARE_SCALAR_F32:
			inst.Binary = BINARY_COMPARE_F32
		case SOP_COMPARE_SCALAR_I32:
			inst.Binary = BINARY_COMPARE_I32
		default:
			inst.Binary = BINARY_COMPARE_U32
		}
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		if inst.SrcA, err = r.register(); err != nil {
			return inst, err
		}
		if inst.SrcB, err = r.register(); err != nil {
			return inst, err
		}
		inst.Cmp, err = r.comparison()

	case SOP_COMPARE_VECTOR_F32, SOP_COMPARE_VECTOR_I32, SOP_COMPARE_VECTOR_U32:
		inst.Op = OP_VECTOR_BINARY
		switch opcode {
		case SOP_COMPARE_VECTOR_F32:
			inst.Binary = BINARY_COMPARE_F32
		case SOP_COMPARE_VECTOR_I32:
			inst.Binary = BINARY_COMPARE_I32
		default:
			inst.Binary = BINARY_COMPARE_U32
		}
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		if inst.SrcA, err = r.register(); err != nil {
			return inst, err
		}
		if inst.SrcB, err = r.register(); err != nil {
			return inst, err
		}
		inst.Cmp, err = r.comparison()

	case SOP_MATRIX_MULTIPLY_M44_V4:
		inst.Op = OP_MATRIX_MULTIPLY_M44_V4
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		for i := 0; i < 4; i++ {
			if inst.MatRows[i], err = r.register(); err != nil {
				return inst, err
			}
		}
		inst.SrcA, err = r.register()

	case SOP_SCALAR_ADD_F32, SOP_SCALAR_SUB_F32, SOP_SCALAR_MUL_F32,
		SOP_SCALAR_DIV_F32, SOP_SCALAR_MOD_F32,
		SOP_SCALAR_ADD_I32, SOP_SCALAR_SUB_I32, SOP_SCALAR_MUL_I32,
		SOP_SCALAR_DIV_I32, SOP_SCALAR_MOD_I32:
		inst.Op = OP_SCALAR_BINARY
		inst.Binary = arithBinaryOp(opcode - SOP_SCALAR_ADD_F32)
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		if inst.SrcA, err = r.register(); err != nil {
			return inst, err
		}
		inst.SrcB, err = r.register()

	case SOP_VECTOR_CW_ADD_F32, SOP_VECTOR_CW_SUB_F32, SOP_VECTOR_CW_MUL_F32,
		SOP_VECTOR_CW_DIV_F32, SOP_VECTOR_CW_MOD_F32,
		SOP_VECTOR_CW_ADD_I32, SOP_VECTOR_CW_SUB_I32, SOP_VECTOR_CW_MUL_I32,
		SOP_VECTOR_CW_DIV_I32, SOP_VECTOR_CW_MOD_I32:
		inst.Op = OP_VECTOR_BINARY
		inst.Binary = arithBinaryOp(opcode - SOP_VECTOR_CW_ADD_F32)
		if inst.Dst, err = r.register(); err != nil {
			return inst, err
		}
		if inst.SrcA, err = r.register(); err != nil {
			return inst, err
		}
		inst.SrcB, err = r.register()

	default:
		return inst, ErrUnknownOpcode
	}
	return inst, err
}

// arithBinaryOp maps the 0..9 offset within an arithmetic opcode block
// (add/sub/mul/div/mod F32 then I32) to a BINARY_* selector.
func arithBinaryOp(offset uint8) uint8 {
	switch offset {
	case 0:
		return BINARY_ADD_F32
	case 1:
		return BINARY_SUB_F32
	case 2:
		return BINARY_MUL_F32
	case 3:
		return BINARY_DIV_F32
	case 4:
		return BINARY_MOD_F32
	case 5:
		return BINARY_ADD_I32
	case 6:
		return BINARY_SUB_I32
	case 7:
		return BINARY_MUL_I32
	case 8:
		return BINARY_DIV_I32
	default:
		return BINARY_MOD_I32
	}
}
