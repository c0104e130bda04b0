package main

// fullscreenVS is shared by every demo pass: one triangle covering the
// target, no vertex buffers.
const fullscreenVS = `
@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    let uv = vec2<f32>(f32((i << 1u) & 2u), f32(i & 2u));
    return vec4<f32>(uv * 2.0 - 1.0, 0.0, 1.0);
}
`

const shadowWGSL = fullscreenVS

const gbufferWGSL = fullscreenVS + `
struct GBuffer {
    @location(0) albedo: vec4<f32>,
    @location(1) normal: vec4<f32>,
}

@fragment
fn fs_main(@builtin(position) pos: vec4<f32>) -> GBuffer {
    var out: GBuffer;
    out.albedo = vec4<f32>(0.8, 0.6, 0.4, 1.0);
    out.normal = vec4<f32>(0.5, 0.5, 1.0, 0.0);
    return out;
}
`

const compositeWGSL = fullscreenVS + `
struct Frame {
    time: f32,
    exposure: f32,
    _pad: vec2<f32>,
}

@group(0) @binding(0) var<uniform> frame: Frame;

@fragment
fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    let pulse = 0.5 + 0.5 * sin(frame.time);
    return vec4<f32>(pulse * frame.exposure, 0.2, 0.4, 1.0);
}
`
