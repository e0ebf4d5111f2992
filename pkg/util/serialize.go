// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"bytes"
	"errors"
	"io"
	"os"
	"unsafe"

	"github.com/klauspost/compress/zstd"
)

func Write[T any](value T, serial Serialize) error {
	cnt := int(unsafe.Sizeof(value))
	buf := PointerToSlice[byte](unsafe.Pointer(&value), cnt)
	return serial.WriteData(buf, cnt)
}

func Read[T any](value *T, deserial Deserialize) error {
	cnt := int(unsafe.Sizeof(*value))
	buf := PointerToSlice[byte](unsafe.Pointer(value), cnt)
	return deserial.ReadData(buf, cnt)
}

var _ Serialize = new(FileSerialize)

type FileSerialize struct {
	file *os.File
}

func (serial *FileSerialize) Close() error {
	_ = serial.file.Sync()
	return serial.file.Close()
}

func NewFileSerialize(name string) (*FileSerialize, error) {
	var err error
	ret := &FileSerialize{}
	ret.file, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0664)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (serial *FileSerialize) WriteData(buffer []byte, len int) error {
	var wlen int
	var n int
	var err error
	for wlen < len {
		n, err = serial.file.Write(buffer[wlen:len])
		if err != nil {
			return err
		}
		wlen += n
	}
	return nil
}

var _ Deserialize = new(FileDeserialize)

type FileDeserialize struct {
	file *os.File
}

func NewFileDeserialize(name string) (*FileDeserialize, error) {
	var err error
	ret := &FileDeserialize{}
	ret.file, err = os.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (deserial *FileDeserialize) ReadData(buffer []byte, len int) error {
	_, err := io.ReadFull(deserial.file, buffer[:len])
	return err
}

func (deserial *FileDeserialize) Close() error {
	return deserial.file.Close()
}

var _ Serialize = new(ZstdSerialize)

// ZstdSerialize compresses everything written into a file as one zstd stream.
type ZstdSerialize struct {
	file *os.File
	enc  *zstd.Encoder
}

func NewZstdSerialize(name string) (*ZstdSerialize, error) {
	file, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0664)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &ZstdSerialize{file: file, enc: enc}, nil
}

func (serial *ZstdSerialize) WriteData(buffer []byte, len int) error {
	_, err := serial.enc.Write(buffer[:len])
	return err
}

func (serial *ZstdSerialize) Close() error {
	err := serial.enc.Close()
	_ = serial.file.Sync()
	return errors.Join(err, serial.file.Close())
}

var _ Deserialize = new(ZstdDeserialize)

type ZstdDeserialize struct {
	file *os.File
	dec  *zstd.Decoder
}

func NewZstdDeserialize(name string) (*ZstdDeserialize, error) {
	file, err := os.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &ZstdDeserialize{file: file, dec: dec}, nil
}

func (deserial *ZstdDeserialize) ReadData(buffer []byte, len int) error {
	_, err := io.ReadFull(deserial.dec, buffer[:len])
	return err
}

func (deserial *ZstdDeserialize) Close() error {
	deserial.dec.Close()
	return deserial.file.Close()
}

var _ Serialize = new(BufferSerialize)
var _ Deserialize = new(BufferSerialize)

// BufferSerialize keeps the serialized bytes in memory.
type BufferSerialize struct {
	Buf bytes.Buffer
}

func (serial *BufferSerialize) WriteData(buffer []byte, len int) error {
	_, err := serial.Buf.Write(buffer[:len])
	return err
}

func (serial *BufferSerialize) ReadData(buffer []byte, len int) error {
	_, err := io.ReadFull(&serial.Buf, buffer[:len])
	return err
}

func (serial *BufferSerialize) Close() error {
	return nil
}
