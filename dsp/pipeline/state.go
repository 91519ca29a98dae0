package pipeline

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/cwbudde/algo-stream/internal/stateio"
)

// Serialized state layout, big-endian:
//
//	magic "ASST" | version uint16 | stageCount uint32
//	per stage: tag string | crc32 uint32 | payload bytes
//
// Strings carry a uint16 length prefix, byte blocks a uint32 one. The
// checksum covers the payload only; tags and counts are validated
// structurally against the live pipeline before anything is applied.
const (
	stateMagic   = "ASST"
	stateVersion = 1
)

// Errors returned by SaveState and LoadState.
var (
	ErrCorruptState       = errors.New("pipeline: corrupt state blob")
	ErrStateVersion       = errors.New("pipeline: unsupported state version")
	ErrStageCountMismatch = errors.New("pipeline: state stage count does not match pipeline")
	ErrStageTypeMismatch  = errors.New("pipeline: state stage type does not match pipeline")

	// ErrPartialRollback reports the severe case: applying a state blob
	// failed and restoring the pre-load backup failed too, leaving the
	// pipeline in a mixed state. Callers should Reset or rebuild it.
	ErrPartialRollback = errors.New("pipeline: state load failed and rollback is incomplete")
)

// SaveState serializes the full processing state of every stage into one
// self-describing blob. The blob records stage order, type tags and a
// per-stage checksum, so it can only be loaded back into a pipeline with
// the same structure.
func (p *Pipeline) SaveState() ([]byte, error) {
	var w stateio.Writer
	w.PutBytesRaw([]byte(stateMagic))
	w.PutUint16(stateVersion)
	w.PutUint32(uint32(len(p.stages)))

	for i, e := range p.stages {
		payload, err := e.s.SaveState()
		if err != nil {
			return nil, fmt.Errorf("pipeline: save stage %d (%s): %w", i, e.typeTag, err)
		}

		w.PutString(e.typeTag)
		w.PutUint32(crc32.ChecksumIEEE(payload))
		w.PutBytes(payload)
	}

	p.log.Debug("pipeline ", p.uid, ": saved state, ", w.Len(), " bytes")

	return w.Bytes(), nil
}

type stateEntry struct {
	tag     string
	payload []byte
}

// LoadState restores every stage from a blob produced by SaveState. The
// load is transactional: the blob is fully parsed and validated against
// the pipeline structure first, current stage states are backed up, and
// on any per-stage failure the backup is rolled back so the pipeline is
// left exactly as it was. Only when the rollback itself fails does the
// pipeline end up mixed, reported as ErrPartialRollback.
func (p *Pipeline) LoadState(data []byte) error {
	entries, err := p.parseState(data)
	if err != nil {
		return err
	}

	for i, e := range entries {
		if e.tag != p.stages[i].typeTag {
			return fmt.Errorf("%w: stage %d is %q, blob has %q",
				ErrStageTypeMismatch, i, p.stages[i].typeTag, e.tag)
		}
	}

	backups := make([][]byte, len(p.stages))
	for i, e := range p.stages {
		b, err := e.s.SaveState()
		if err != nil {
			return fmt.Errorf("pipeline: backup stage %d (%s): %w", i, e.typeTag, err)
		}
		backups[i] = b
	}

	for i, e := range entries {
		if err := p.stages[i].s.LoadState(e.payload); err != nil {
			applyErr := fmt.Errorf("pipeline: load stage %d (%s): %w", i, e.tag, err)

			if rbErr := p.rollback(backups, i); rbErr != nil {
				return fmt.Errorf("%w: %s (after %s)", ErrPartialRollback, rbErr, applyErr)
			}

			p.log.Info("pipeline ", p.uid, ": state load failed, rolled back: ", applyErr)

			return applyErr
		}
	}

	p.log.Debug("pipeline ", p.uid, ": loaded state for ", len(entries), " stages")

	return nil
}

// parseState decodes and checksums the blob without touching any stage.
func (p *Pipeline) parseState(data []byte) ([]stateEntry, error) {
	r := stateio.NewReader(data)

	magic, err := r.BytesRaw(len(stateMagic))
	if err != nil || string(magic) != stateMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptState)
	}

	version, err := r.Uint16()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptState, err)
	}
	if version != stateVersion {
		return nil, fmt.Errorf("%w: %d", ErrStateVersion, version)
	}

	count, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptState, err)
	}
	if int(count) != len(p.stages) {
		return nil, fmt.Errorf("%w: blob has %d, pipeline has %d",
			ErrStageCountMismatch, count, len(p.stages))
	}

	entries := make([]stateEntry, count)
	for i := range entries {
		tag, err := r.String()
		if err != nil {
			return nil, fmt.Errorf("%w: stage %d tag: %s", ErrCorruptState, i, err)
		}

		sum, err := r.Uint32()
		if err != nil {
			return nil, fmt.Errorf("%w: stage %d checksum: %s", ErrCorruptState, i, err)
		}

		payload, err := r.Bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: stage %d payload: %s", ErrCorruptState, i, err)
		}
		if crc32.ChecksumIEEE(payload) != sum {
			return nil, fmt.Errorf("%w: stage %d checksum mismatch", ErrCorruptState, i)
		}

		entries[i] = stateEntry{tag: tag, payload: payload}
	}

	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptState, r.Remaining())
	}

	return entries, nil
}

// rollback restores stages 0..applied from their backups. Stage applied
// may be partially modified by its failed load, so it is restored too.
func (p *Pipeline) rollback(backups [][]byte, applied int) error {
	for i := 0; i <= applied; i++ {
		if err := p.stages[i].s.LoadState(backups[i]); err != nil {
			return fmt.Errorf("restore stage %d (%s): %w", i, p.stages[i].typeTag, err)
		}
	}

	return nil
}
