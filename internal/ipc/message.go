package ipc

import (
	"net"

	"github.com/muralwl/mural/internal/shm"
)

// IncomingRequest is what the daemon reads off the listener: the request
// code plus, for Clear/Img, the decoded payload bytes (already mapped in
// from the accompanying fd and copied out so the caller can drop the
// mapping immediately).
type IncomingRequest struct {
	Code    Code
	Payload []byte
}

// ReceiveRequest reads one client → daemon frame. For Ping/Query/Pause/Kill
// there is no payload; for Clear/Img it maps the accompanying fd, copies
// out Payload, and unmaps it.
func ReceiveRequest(conn *net.UnixConn) (IncomingRequest, error) {
	code, length, fd, err := ReadFrame(conn)
	if err != nil {
		return IncomingRequest{}, err
	}
	if length == 0 {
		return IncomingRequest{Code: code}, nil
	}

	mm, err := shm.FromFd(fd, int(length))
	if err != nil {
		return IncomingRequest{}, wrap(KindMalformedMsg, err)
	}
	defer mm.Close()

	payload := append([]byte(nil), mm.Slice()...)
	return IncomingRequest{Code: code, Payload: payload}, nil
}

// SendPing sends a bare Ping request (client → daemon).
func SendPing(conn *net.UnixConn) error { return WriteFrame(conn, CodePing, 0, -1) }

// SendQuery sends a bare Query request.
func SendQuery(conn *net.UnixConn) error { return WriteFrame(conn, CodeQuery, 0, -1) }

// SendPause sends a bare Pause request.
func SendPause(conn *net.UnixConn) error { return WriteFrame(conn, CodePause, 0, -1) }

// SendKill sends a bare Kill request.
func SendKill(conn *net.UnixConn) error { return WriteFrame(conn, CodeKill, 0, -1) }

// SendClear sends a Clear request. The payload is small enough to not
// warrant shared memory, so it's mapped through an anonymous region purely
// to keep a single fd-passing code path for every non-empty frame.
func SendClear(conn *net.UnixConn, req ClearRequest) error {
	payload := EncodeClearRequest(req)
	return sendMappedPayload(conn, CodeClear, payload)
}

// SendImg sends an Img request already built via ImageRequestBuilder,
// transmitting its backing shared-memory fd directly (zero-copy).
func SendImg(conn *net.UnixConn, mem *shm.Mmap, length int) error {
	fd, err := mem.Dup()
	if err != nil {
		return wrap(KindMalformedMsg, err)
	}
	return WriteFrame(conn, CodeImg, uint64(length), fd)
}

func sendMappedPayload(conn *net.UnixConn, code Code, payload []byte) error {
	mem, err := shm.Create(len(payload))
	if err != nil {
		return wrap(KindMalformedMsg, err)
	}
	defer mem.Close()
	copy(mem.SliceMut(), payload)

	fd, err := mem.Dup()
	if err != nil {
		return wrap(KindMalformedMsg, err)
	}
	return WriteFrame(conn, code, uint64(len(payload)), fd)
}

// Answer is a daemon → client response.
type Answer struct {
	Code    Code
	Payload []byte
}

// SendOk replies with a bare Ok.
func SendOk(conn *net.UnixConn) error { return WriteFrame(conn, CodeOk, 0, -1) }

// SendPingAnswer replies to Ping with whether the daemon is alive (always
// true if it can respond at all, but kept structured for symmetry with the
// original's `Answer::Ping(bool)`).
func SendPingAnswer(conn *net.UnixConn, alive bool) error {
	payload := []byte{boolByte(alive)}
	return sendMappedPayload(conn, CodeAnswerPing, payload)
}

// SendInfo replies to Query with the current state of every output.
func SendInfo(conn *net.UnixConn, infos []Info) error {
	payload := encodeInfoList(infos)
	return sendMappedPayload(conn, CodeInfo, payload)
}

// ReceiveAnswer reads one daemon → client frame.
func ReceiveAnswer(conn *net.UnixConn) (Answer, error) {
	code, length, fd, err := ReadFrame(conn)
	if err != nil {
		return Answer{}, err
	}
	if length == 0 {
		return Answer{Code: code}, nil
	}
	mm, err := shm.FromFd(fd, int(length))
	if err != nil {
		return Answer{}, wrap(KindMalformedMsg, err)
	}
	defer mm.Close()
	return Answer{Code: code, Payload: append([]byte(nil), mm.Slice()...)}, nil
}

func encodeInfoList(infos []Info) []byte {
	buf := u32le(uint32(len(infos)))
	for _, info := range infos {
		buf = append(buf, u32le(uint32(len(info.Name)))...)
		buf = append(buf, info.Name...)
		buf = append(buf, u32le(info.Dim.X)...)
		buf = append(buf, u32le(info.Dim.Y)...)
		buf = append(buf, boolByte(info.Scale.Fractional))
		buf = append(buf, u32le(uint32(info.Scale.Value))...)
		buf = append(buf, boolByte(info.Img.IsColor))
		if info.Img.IsColor {
			buf = append(buf, info.Img.Color[:]...)
		} else {
			buf = append(buf, u32le(uint32(len(info.Img.Path)))...)
			buf = append(buf, info.Img.Path...)
		}
		buf = append(buf, byte(info.Format))
	}
	return buf
}

// DecodeInfoList is the mirror of encodeInfoList, used by the client to
// render a Query reply.
func DecodeInfoList(data []byte) ([]Info, error) {
	r := &byteReader{data: data}
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.lenPrefixedString()
		if err != nil {
			return nil, err
		}
		w, err := r.u32()
		if err != nil {
			return nil, err
		}
		h, err := r.u32()
		if err != nil {
			return nil, err
		}
		fractional, err := r.u8()
		if err != nil {
			return nil, err
		}
		scaleValue, err := r.u32()
		if err != nil {
			return nil, err
		}
		isColor, err := r.u8()
		if err != nil {
			return nil, err
		}
		var img ImageDescription
		if isColor != 0 {
			color, err := r.bytes(3)
			if err != nil {
				return nil, err
			}
			img.IsColor = true
			copy(img.Color[:], color)
		} else {
			path, err := r.lenPrefixedString()
			if err != nil {
				return nil, err
			}
			img.Path = path
		}
		format, err := r.u8()
		if err != nil {
			return nil, err
		}
		infos = append(infos, Info{
			Name:   name,
			Dim:    Vec2[uint32]{X: w, Y: h},
			Scale:  Scale{Fractional: fractional != 0, Value: int32(scaleValue)},
			Img:    img,
			Format: PixelFormat(format),
		})
	}
	return infos, nil
}
