package sensorpower

// up runs the first-in sequence.
//
// SchemeReset: assert RSTn, raise ENABLE, settle, release RSTn.
// SchemeEnable: raise ENABLE, settle.
func (m *Machine) up() error {
	if m.cfg.Scheme == SchemeReset {
		if err := m.cfg.Reset.Set(false); err != nil {
			m.cfg.Log.Errorf("unable to activate RSTn: %v", err)
			return err
		}
	}
	if err := m.cfg.Enable.Set(true); err != nil {
		m.cfg.Log.Errorf("unable to activate ENABLE: %v", err)
		return err
	}
	if m.cfg.Settle > 0 {
		m.cfg.Sleep(m.cfg.Settle)
	}
	if m.cfg.Scheme == SchemeReset {
		if err := m.cfg.Reset.Set(true); err != nil {
			m.cfg.Log.Errorf("unable to deactivate RSTn: %v", err)
			return err
		}
	}
	return nil
}

// down runs the last-out sequence: assert RSTn (if any), drop ENABLE.
func (m *Machine) down() error {
	if m.cfg.Scheme == SchemeReset {
		if err := m.cfg.Reset.Set(false); err != nil {
			m.cfg.Log.Errorf("unable to activate RSTn: %v", err)
			return err
		}
	}
	if err := m.cfg.Enable.Set(false); err != nil {
		m.cfg.Log.Errorf("unable to deactivate ENABLE: %v", err)
		return err
	}
	return nil
}

// safeDown is down with errors already reported.
func (m *Machine) safeDown() { _ = m.down() }
