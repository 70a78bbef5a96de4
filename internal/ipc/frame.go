package ipc

import (
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// headerLen is the fixed 16-byte header: an 8-byte code followed by an
// 8-byte payload length, spec §4.5.
const headerLen = 16

// Code identifies the kind of message a frame carries. The same numeric
// space is shared by requests (client → daemon) and responses
// (daemon → client); which table applies is determined by which side of
// the socket is reading.
type Code uint64

const (
	CodePing Code = iota
	CodeQuery
	CodeClear
	CodeImg
	CodePause
	CodeKill

	CodeOk
	CodeAnswerPing
	CodeInfo
)

// WriteFrame writes a header followed by, if fd >= 0, exactly one
// SCM_RIGHTS ancillary message carrying fd and a len field describing how
// many bytes the receiver should mmap it for. If fd < 0, len must be 0 and
// no ancillary data is sent.
func WriteFrame(conn *net.UnixConn, code Code, length uint64, fd int) error {
	if fd < 0 && length != 0 {
		return fmt.Errorf("ipc: WriteFrame with no fd but length %d", length)
	}

	header := make([]byte, headerLen)
	binary.NativeEndian.PutUint64(header[0:8], uint64(code))
	binary.NativeEndian.PutUint64(header[8:16], length)

	var oob []byte
	if fd >= 0 {
		oob = unix.UnixRights(fd)
	}

	n, oobn, err := conn.WriteMsgUnix(header, oob, nil)
	if err != nil {
		return wrap(KindRead, err)
	}
	if n != headerLen || oobn != len(oob) {
		return wrap(KindMalformedMsg, fmt.Errorf("short write: %d/%d header bytes, %d/%d oob bytes", n, headerLen, oobn, len(oob)))
	}
	return nil
}

// ReadFrame reads one frame's header and, if its length is non-zero, the
// single file descriptor that must accompany it via SCM_RIGHTS. The
// returned fd is owned by the caller (on Linux, ReadMsgUnix receives it with
// close-on-exec set; callers that don't consume it immediately should dup
// and close appropriately).
func ReadFrame(conn *net.UnixConn) (code Code, length uint64, fd int, err error) {
	header := make([]byte, headerLen)
	oob := make([]byte, unix.CmsgSpace(4))

	n, oobn, _, _, rerr := conn.ReadMsgUnix(header, oob)
	if rerr != nil {
		return 0, 0, -1, wrap(KindRead, rerr)
	}
	if n != headerLen {
		return 0, 0, -1, wrap(KindMalformedMsg, fmt.Errorf("short header read: %d/%d bytes", n, headerLen))
	}

	code = Code(binary.NativeEndian.Uint64(header[0:8]))
	length = binary.NativeEndian.Uint64(header[8:16])

	if length == 0 {
		return code, length, -1, nil
	}

	cmsgs, perr := unix.ParseSocketControlMessage(oob[:oobn])
	if perr != nil || len(cmsgs) != 1 {
		return 0, 0, -1, wrap(KindMalformedMsg, fmt.Errorf("expected exactly one control message, got %d (err=%v)", len(cmsgs), perr))
	}
	fds, ferr := unix.ParseUnixRights(&cmsgs[0])
	if ferr != nil || len(fds) != 1 {
		return 0, 0, -1, wrap(KindMalformedMsg, fmt.Errorf("expected exactly one fd, got %d (err=%v)", len(fds), ferr))
	}
	return code, length, fds[0], nil
}
