package chip8

// executeInstruction runs one already fetched instruction. The PC already points past it.
func (m *Machine) executeInstruction(opCode OpCode) error {
	x := opCode.X()
	y := opCode.Y()
	nn := opCode.NN()
	nnn := opCode.NNN()

	unknown := func() error {
		return ErrOpCodeUnknown{OpCode: opCode, Pc: m.Pc - 2}
	}

	switch opCode.Group() {
	case 0x0:
		switch opCode {
		case 0x00E0:
			// CLS :: Clear the display.
			m.Screen.Clear()
			m.redraw = true

		case 0x00EE:
			// RET :: Return from a subroutine.
			pc, err := m.pop()
			if err != nil {
				return err
			}
			m.Pc = pc

		default:
			// SYS addr :: Jump to a machine code routine at nnn.
			// Only meaningful on the original hardware.
			return ErrOpCodeUnsupported{OpCode: opCode, Pc: m.Pc - 2}
		}

	case 0x1:
		// JP addr :: Jump to location nnn.
		m.Pc = nnn

	case 0x2:
		// CALL addr :: Call subroutine at nnn.
		if err := m.push(m.Pc); err != nil {
			return err
		}
		m.Pc = nnn

	case 0x3:
		// SE Vx, byte :: Skip next instruction if Vx = kk.
		if m.V[x] == nn {
			m.Pc += 2
		}

	case 0x4:
		// SNE Vx, byte :: Skip next instruction if Vx != kk.
		if m.V[x] != nn {
			m.Pc += 2
		}

	case 0x5:
		if opCode.N() != 0 {
			return unknown()
		}
		// SE Vx, Vy :: Skip next instruction if Vx = Vy.
		if m.V[x] == m.V[y] {
			m.Pc += 2
		}

	case 0x6:
		// LD Vx, byte :: Set Vx = kk.
		m.V[x] = nn

	case 0x7:
		// ADD Vx, byte :: Set Vx = Vx + kk. VF is left alone.
		m.V[x] += nn

	case 0x8:
		return m.executeAlu(opCode, x, y)

	case 0x9:
		if opCode.N() != 0 {
			return unknown()
		}
		// SNE Vx, Vy :: Skip next instruction if Vx != Vy.
		if m.V[x] != m.V[y] {
			m.Pc += 2
		}

	case 0xA:
		// LD I, addr :: Set I = nnn.
		m.I = nnn

	case 0xB:
		// JP V0, addr :: Jump to location nnn + V0.
		m.Pc = nnn + uint16(m.V[0])

	case 0xC:
		// RND Vx, byte :: Set Vx = random byte AND kk.
		m.V[x] = m.randomByte() & nn

	case 0xD:
		// DRW Vx, Vy, nibble :: Display n-byte sprite starting at memory location I at (Vx, Vy), set VF = collision.
		n := opCode.N()
		var rows [15]byte
		for i := byte(0); i < n; i++ {
			rows[i] = m.Memory.Read(m.I + uint16(i))
		}
		// VF is cleared before the coordinates are read, so DRW VF, ... draws at 0.
		m.V[0xF] = 0
		m.V[0xF] = bool2byte(m.Screen.drawSprite(m.V[x], m.V[y], rows[:n]))
		m.redraw = true

	case 0xE:
		switch nn {
		case 0x9E:
			// SKP Vx :: Skip next instruction if key with the value of Vx is pressed.
			if m.Keys.IsPressed(m.V[x]) {
				m.Pc += 2
			}
		case 0xA1:
			// SKNP Vx :: Skip next instruction if key with the value of Vx is not pressed.
			if !m.Keys.IsPressed(m.V[x]) {
				m.Pc += 2
			}
		default:
			return unknown()
		}

	case 0xF:
		return m.executeMisc(opCode, x)
	}

	return nil
}

// executeAlu runs the 8xy? register to register operations
func (m *Machine) executeAlu(opCode OpCode, x, y byte) error {
	switch opCode.N() {
	case 0x0:
		// LD Vx, Vy :: Set Vx = Vy.
		m.V[x] = m.V[y]

	case 0x1:
		// OR Vx, Vy :: Set Vx = Vx OR Vy.
		m.V[x] |= m.V[y]

	case 0x2:
		// AND Vx, Vy :: Set Vx = Vx AND Vy.
		m.V[x] &= m.V[y]

	case 0x3:
		// XOR Vx, Vy :: Set Vx = Vx XOR Vy.
		m.V[x] ^= m.V[y]

	case 0x4:
		// ADD Vx, Vy :: Set Vx = Vx + Vy, set VF = carry.
		m.V[0xF] = bool2byte(uint16(m.V[x])+uint16(m.V[y]) > 0xFF)
		m.V[x] += m.V[y]

	case 0x5:
		// SUB Vx, Vy :: Set Vx = Vx - Vy, set VF = Vx > Vy.
		m.V[0xF] = bool2byte(m.V[x] > m.V[y])
		m.V[x] -= m.V[y]

	case 0x6:
		// SHR Vx :: Set Vx = Vx SHR 1, VF = the bit shifted out.
		m.V[0xF] = m.V[x] & 0b00000001
		m.V[x] >>= 1

	case 0x7:
		// SUBN Vx, Vy :: Set Vx = Vy - Vx, set VF = Vy > Vx.
		m.V[0xF] = bool2byte(m.V[y] > m.V[x])
		m.V[x] = m.V[y] - m.V[x]

	case 0xE:
		// SHL Vx :: Set Vx = Vx SHL 1, VF = the bit shifted out.
		m.V[0xF] = m.V[x] >> 7
		m.V[x] <<= 1

	default:
		return ErrOpCodeUnknown{OpCode: opCode, Pc: m.Pc - 2}
	}

	return nil
}

// executeMisc runs the Fx?? timer, keyboard and memory operations
func (m *Machine) executeMisc(opCode OpCode, x byte) error {
	switch opCode.NN() {
	case 0x07:
		// LD Vx, DT :: Set Vx = delay timer value.
		m.V[x] = m.Dt

	case 0x0A:
		// LD Vx, K :: Wait for a key press, store the value of the key in Vx.
		// Nothing pressed re-runs this instruction on the next step.
		if k, pressed := m.Keys.Pressed(); pressed {
			m.V[x] = k
		} else {
			m.Pc -= 2
		}

	case 0x15:
		// LD DT, Vx :: Set delay timer = Vx.
		m.Dt = m.V[x]

	case 0x18:
		// LD ST, Vx :: Set sound timer = Vx.
		m.St = m.V[x]

	case 0x1E:
		// ADD I, Vx :: Set I = I + Vx.
		m.I += uint16(m.V[x])

	case 0x29:
		// LD F, Vx :: Set I = location of sprite for digit Vx.
		m.I = GlyphAddress(m.V[x])

	case 0x33:
		// LD B, Vx :: Store BCD representation of Vx in memory locations I, I+1, and I+2.
		v := m.V[x]
		m.Memory.Write(m.I+0, v/100)
		m.Memory.Write(m.I+1, (v/10)%10)
		m.Memory.Write(m.I+2, v%10)

	case 0x55:
		// LD [I], Vx :: Store registers V0 through Vx in memory starting at location I.
		for i := byte(0); i <= x; i++ {
			m.Memory.Write(m.I+uint16(i), m.V[i])
		}

	case 0x65:
		// LD Vx, [I] :: Read registers V0 through Vx from memory starting at location I.
		for i := byte(0); i <= x; i++ {
			m.V[i] = m.Memory.Read(m.I + uint16(i))
		}

	default:
		return ErrOpCodeUnknown{OpCode: opCode, Pc: m.Pc - 2}
	}

	return nil
}
