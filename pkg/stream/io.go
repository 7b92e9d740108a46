package stream

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// ============================================================================
// CSV/TSV SOURCES - EXTERNAL DATA INPUT
// ============================================================================

// CSVSource configuration for reading CSV data
type CSVSource struct {
	Reader    io.Reader
	HasHeader bool
	Separator rune
	Headers   []string
}

// NewCSVSource creates a CSV source from a reader
func NewCSVSource(reader io.Reader) *CSVSource {
	return &CSVSource{
		Reader:    reader,
		HasHeader: true,
		Separator: ',',
	}
}

// NewCSVSourceFromFile creates a CSV source from a file
func NewCSVSourceFromFile(filename string) (*CSVSource, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", filename, err)
	}
	return NewCSVSource(file), nil
}

// NewTSVSource creates a TSV source (Tab-Separated Values)
func NewTSVSource(reader io.Reader) *CSVSource {
	return &CSVSource{
		Reader:    reader,
		HasHeader: true,
		Separator: '\t',
	}
}

// WithHeaders sets custom headers for the CSV
func (cs *CSVSource) WithHeaders(headers []string) *CSVSource {
	cs.Headers = headers
	cs.HasHeader = false
	return cs
}

// WithoutHeaders configures CSV to not expect headers
func (cs *CSVSource) WithoutHeaders() *CSVSource {
	cs.HasHeader = false
	return cs
}

// ToStream converts CSV data to a Record stream
func (cs *CSVSource) ToStream() RecordStream {
	reader := csv.NewReader(cs.Reader)
	reader.Comma = cs.Separator

	var headers []string
	headerRead := false

	rowToRecord := func(row []string) Record {
		record := make(Record)
		for i, value := range row {
			if i < len(headers) {
				record[headers[i]] = ParseScalar(value)
			} else {
				record[fmt.Sprintf("extra_col%d", i)] = ParseScalar(value)
			}
		}
		return record
	}

	return func() Step[Record] {
		if !headerRead {
			headerRead = true
			if cs.HasHeader {
				headerRow, err := reader.Read()
				if err != nil {
					if err == io.EOF {
						return Stop[Record]()
					}
					return StopWith[Record](err)
				}
				headers = headerRow
			} else if len(cs.Headers) > 0 {
				headers = cs.Headers
			} else {
				// Generate default headers from the width of the first row,
				// which is itself data.
				firstRow, err := reader.Read()
				if err != nil {
					if err == io.EOF {
						return Stop[Record]()
					}
					return StopWith[Record](err)
				}
				headers = make([]string, len(firstRow))
				for i := range headers {
					headers[i] = fmt.Sprintf("col%d", i)
				}
				return Yield(rowToRecord(firstRow))
			}
		}

		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return Stop[Record]()
			}
			return StopWith[Record](err)
		}
		return Yield(rowToRecord(row))
	}
}

// ============================================================================
// CSV/TSV SINKS - DATA OUTPUT
// ============================================================================

// CSVSink configuration for writing CSV data
type CSVSink struct {
	Writer    io.Writer
	Separator rune
	Headers   []string
}

// NewCSVSink creates a CSV sink to a writer
func NewCSVSink(writer io.Writer) *CSVSink {
	return &CSVSink{Writer: writer, Separator: ','}
}

// NewTSVSink creates a TSV sink to a writer
func NewTSVSink(writer io.Writer) *CSVSink {
	return &CSVSink{Writer: writer, Separator: '\t'}
}

// WithHeaders sets the headers for CSV output
func (sink *CSVSink) WithHeaders(headers []string) *CSVSink {
	sink.Headers = headers
	return sink
}

// WriteStream writes a Record stream to CSV format. Headers default to the
// sorted keys of the first record.
func (sink *CSVSink) WriteStream(input RecordStream) error {
	writer := csv.NewWriter(sink.Writer)
	writer.Comma = sink.Separator
	defer writer.Flush()

	headers := sink.Headers
	wroteHeader := false

	write := func(record Record) error {
		if !wroteHeader {
			if len(headers) == 0 {
				headers = record.Keys()
				slices.Sort(headers)
			}
			if err := writer.Write(headers); err != nil {
				return fmt.Errorf("failed to write CSV headers: %w", err)
			}
			wroteHeader = true
		}
		row := make([]string, len(headers))
		for i, h := range headers {
			if v, ok := record[h]; ok {
				row[i] = FormatScalar(v)
			}
		}
		return writer.Write(row)
	}

	for {
		r := input()
		switch r.kind {
		case stepYield:
			if err := write(r.item); err != nil {
				return err
			}
		case stepSkip:
		default:
			if r.err != nil {
				return r.err
			}
			writer.Flush()
			return writer.Error()
		}
	}
}

// ============================================================================
// JSON SOURCES AND SINKS - STRUCTURED DATA SUPPORT
// ============================================================================

// JSONLinesSource reads newline-delimited JSON objects as Records.
type JSONLinesSource struct {
	Reader io.Reader
}

// NewJSONLinesSource creates a JSON-lines source from a reader
func NewJSONLinesSource(reader io.Reader) *JSONLinesSource {
	return &JSONLinesSource{Reader: reader}
}

// ToStream converts JSON-lines data to a Record stream
func (js *JSONLinesSource) ToStream() RecordStream {
	scanner := bufio.NewScanner(js.Reader)
	return func() Step[Record] {
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var m map[string]any
			if err := json.Unmarshal([]byte(line), &m); err != nil {
				return StopWith[Record](fmt.Errorf("failed to parse JSON line: %w", err))
			}
			return Yield(Record(m))
		}
		if err := scanner.Err(); err != nil {
			return StopWith[Record](err)
		}
		return Stop[Record]()
	}
}

// WriteJSONLines writes a Record stream as newline-delimited JSON.
func WriteJSONLines(input RecordStream, w io.Writer) error {
	enc := json.NewEncoder(w)
	for {
		r := input()
		switch r.kind {
		case stepYield:
			if err := enc.Encode(map[string]any(r.item)); err != nil {
				return fmt.Errorf("failed to encode JSON line: %w", err)
			}
		case stepSkip:
		default:
			return r.err
		}
	}
}

// ============================================================================
// PROTOBUF SOURCES AND SINKS - LENGTH-DELIMITED BINARY DATA
// ============================================================================

// FromProtoDelimited reads varint-length-delimited protobuf messages. newMsg
// allocates the message each element decodes into.
func FromProtoDelimited[M proto.Message](r io.Reader, newMsg func() M) Stream[M] {
	reader := bufio.NewReader(r)
	return func() Step[M] {
		size, err := readUvarint(reader)
		if err != nil {
			if err == io.EOF {
				return Stop[M]()
			}
			return StopWith[M](fmt.Errorf("failed to read message length: %w", err))
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(reader, data); err != nil {
			return StopWith[M](fmt.Errorf("failed to read message body: %w", err))
		}
		msg := newMsg()
		if err := proto.Unmarshal(data, msg); err != nil {
			return StopWith[M](fmt.Errorf("failed to unmarshal protobuf message: %w", err))
		}
		return Yield(msg)
	}
}

// WriteProtoDelimited writes a stream of protobuf messages with varint
// length prefixes.
func WriteProtoDelimited[M proto.Message](input Stream[M], w io.Writer) error {
	var scratch []byte
	for {
		r := input()
		switch r.kind {
		case stepYield:
			body, err := proto.Marshal(r.item)
			if err != nil {
				return fmt.Errorf("failed to marshal protobuf message: %w", err)
			}
			scratch = protowire.AppendVarint(scratch[:0], uint64(len(body)))
			if _, err := w.Write(scratch); err != nil {
				return err
			}
			if _, err := w.Write(body); err != nil {
				return err
			}
		case stepSkip:
		default:
			return r.err
		}
	}
}

// readUvarint reads one varint, byte by byte, off a buffered reader.
func readUvarint(r *bufio.Reader) (uint64, error) {
	var scratch [10]byte
	n := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && n > 0 {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		scratch[n] = b
		n++
		if b < 0x80 {
			break
		}
		if n == len(scratch) {
			return 0, fmt.Errorf("varint overflows 64 bits")
		}
	}
	v, cnt := protowire.ConsumeVarint(scratch[:n])
	if cnt < 0 {
		return 0, protowire.ParseError(cnt)
	}
	return v, nil
}

// ProtoRecords converts a stream of dynamic protobuf messages into Records
// via their JSON representation.
func ProtoRecords(input Stream[*dynamicpb.Message]) RecordStream {
	return MapEffect(func(m *dynamicpb.Message) (Record, error) {
		data, err := protojson.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal protobuf message to JSON: %w", err)
		}
		var rec map[string]any
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode protobuf JSON: %w", err)
		}
		return Record(rec), nil
	})(input)
}

// NewDynamicProtoSource reads varint-length-delimited messages of the given
// descriptor type.
func NewDynamicProtoSource(r io.Reader, desc protoreflect.MessageDescriptor) Stream[*dynamicpb.Message] {
	return FromProtoDelimited(r, func() *dynamicpb.Message {
		return dynamicpb.NewMessage(desc)
	})
}
